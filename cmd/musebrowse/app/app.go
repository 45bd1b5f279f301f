// Package app provides the application context and dependency management for
// the musebrowse CLI. It centralizes configuration, logging, and the browsing
// session behind one App value that commands share.
package app

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/musebrowse/musebrowse"
	"github.com/musebrowse/musebrowse/pkg/errors"
	"github.com/musebrowse/musebrowse/pkg/exhibitions"
)

// App represents the musebrowse application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Browsing session (lazy-initialized, singleton)
	mu      sync.RWMutex
	session musebrowse.Session
}

// New creates a new App instance with the given version information.
func New(version, commit, date string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapValidation("config", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version string.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Session returns the browsing session, creating it lazily if needed.
// This is thread-safe and ensures only one instance is created.
func (a *App) Session() (musebrowse.Session, error) {
	a.mu.RLock()
	if a.session != nil {
		s := a.session
		a.mu.RUnlock()
		return s, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session != nil {
		return a.session, nil
	}

	session, err := musebrowse.New(a.buildSessionOptions()...)
	if err != nil {
		return nil, err
	}

	a.session = session
	return session, nil
}

// Exhibitions opens the exhibitions store configured for this app.
// Callers own the returned store and must Close it.
func (a *App) Exhibitions() (*exhibitions.Store, error) {
	if dir := filepath.Dir(a.config.ExhibitionsDB); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.WrapIO("create", dir, err)
		}
	}
	return exhibitions.Open(a.config.ExhibitionsDB)
}

// buildSessionOptions constructs session options from the app configuration.
func (a *App) buildSessionOptions() []musebrowse.Option {
	opts := []musebrowse.Option{musebrowse.WithDefaultCatalogs()}

	if a.config.SnapshotPath != "" {
		opts = append(opts, musebrowse.WithSnapshot(a.config.SnapshotPath))
	}
	if a.config.PageSize > 0 && a.config.BatchSize > 0 {
		opts = append(opts, musebrowse.WithPageSizes(a.config.PageSize, a.config.BatchSize))
	}

	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithSession sets a custom browsing session (useful for testing).
func WithSession(session musebrowse.Session) Option {
	return func(a *App) error {
		a.session = session
		return nil
	}
}
