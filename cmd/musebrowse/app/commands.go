package app

import (
	"encoding/json"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/musebrowse/musebrowse"
	"github.com/musebrowse/musebrowse/pkg/artworks"
	"github.com/musebrowse/musebrowse/pkg/query"
)

// CreateSearchCommand creates the search command.
func (a *App) CreateSearchCommand() *cobra.Command {
	var (
		page     int
		source   string
		artist   string
		medium   string
		yearFrom int
		yearTo   int
		refresh  bool
	)

	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search artworks across museum catalogs",
		Long: `Search queries the configured museum catalogs and merges the results
into one paginated collection. All filters combine as AND; text matches
title, artist, and description case-insensitively.

Repeating a search for nearby pages reuses already-fetched batches instead of
calling the catalog APIs again.`,
		Example: `  musebrowse search rembrandt
  musebrowse search --artist monet --from 1870 --to 1890
  musebrowse search woodblock --source met --page 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.Session()
			if err != nil {
				return err
			}

			filters := query.Filters{
				Text:   strings.Join(args, " "),
				Artist: artist,
				Medium: medium,
				Source: artworks.Source(source),
			}
			if cmd.Flags().Changed("from") {
				filters.DateFrom = &yearFrom
			}
			if cmd.Flags().Changed("to") {
				filters.DateTo = &yearTo
			}

			result, err := session.LoadPage(cmd.Context(), filters, page, refresh)
			if err != nil {
				return err
			}

			for failed, ferr := range result.Failures {
				a.logger.Warn().
					Err(ferr).
					Str("source", failed.String()).
					Msg("Catalog unavailable; showing partial results")
			}

			return a.renderPage(cmd, result)
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "display page to show (1-based)")
	cmd.Flags().StringVarP(&source, "source", "s", "all", "catalog to search: aic, met, all")
	cmd.Flags().StringVar(&artist, "artist", "", "filter by artist name (substring match)")
	cmd.Flags().StringVar(&medium, "medium", "", "filter by medium (substring match)")
	cmd.Flags().IntVar(&yearFrom, "from", 0, "earliest creation year (inclusive)")
	cmd.Flags().IntVar(&yearTo, "to", 0, "latest creation year (inclusive)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "refetch from the catalogs even if cached")

	return cmd
}

// CreateDetailCommand creates the detail command.
func (a *App) CreateDetailCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detail <artwork-id>",
		Short: "Show the full record for an artwork",
		Long: `Detail fetches the full record for an artwork identity of the form
<source>:<id>, for example aic:27992 or met:436535.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.Session()
			if err != nil {
				return err
			}

			art, err := session.LoadDetail(cmd.Context(), artworks.ID(args[0]))
			if err != nil {
				return err
			}

			return a.renderArtwork(cmd, art)
		},
	}
}

// CreateExhibitionsCommand creates the exhibitions command and its subcommands.
func (a *App) CreateExhibitionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "exhibitions",
		Aliases: []string{"ex"},
		Short:   "Manage saved exhibitions",
		Long: `Exhibitions are named, locally stored lists of artwork identities.
Use them to curate artworks found across catalogs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(a.createExhibitionsListCommand())
	cmd.AddCommand(a.createExhibitionsCreateCommand())
	cmd.AddCommand(a.createExhibitionsShowCommand())
	cmd.AddCommand(a.createExhibitionsAddCommand())
	cmd.AddCommand(a.createExhibitionsRemoveCommand())
	cmd.AddCommand(a.createExhibitionsDeleteCommand())

	return cmd
}

func (a *App) createExhibitionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved exhibitions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.Exhibitions()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			list, err := store.List()
			if err != nil {
				return err
			}
			if len(list) == 0 {
				cmd.Println("No exhibitions saved")
				return nil
			}

			for _, ex := range list {
				cmd.Printf("%s  %s (%d artworks)\n", ex.ID, ex.Title, len(ex.ArtworkIDs))
			}
			return nil
		},
	}
}

func (a *App) createExhibitionsCreateCommand() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new exhibition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.Exhibitions()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ex, err := store.Create(args[0], description)
			if err != nil {
				return err
			}

			cmd.Printf("Created exhibition %s (%s)\n", ex.Title, ex.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "exhibition description")
	return cmd
}

func (a *App) createExhibitionsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <exhibition-id>",
		Short: "Show an exhibition and its artworks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.Exhibitions()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ex, err := store.Get(args[0])
			if err != nil {
				return err
			}

			cmd.Printf("%s\n", ex.Title)
			if ex.Description != "" {
				cmd.Printf("%s\n", ex.Description)
			}
			cmd.Printf("Updated: %s\n\n", ex.UpdatedAt.Format("2006-01-02 15:04"))
			for _, id := range ex.ArtworkIDs {
				cmd.Printf("  %s\n", id)
			}
			return nil
		},
	}
}

func (a *App) createExhibitionsAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <exhibition-id> <artwork-id>",
		Short: "Add an artwork to an exhibition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.Exhibitions()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ex, err := store.AddArtwork(args[0], artworks.ID(args[1]))
			if err != nil {
				return err
			}

			cmd.Printf("Added %s to %s (%d artworks)\n", args[1], ex.Title, len(ex.ArtworkIDs))
			return nil
		},
	}
}

func (a *App) createExhibitionsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <exhibition-id> <artwork-id>",
		Short: "Remove an artwork from an exhibition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.Exhibitions()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ex, err := store.RemoveArtwork(args[0], artworks.ID(args[1]))
			if err != nil {
				return err
			}

			cmd.Printf("Removed %s from %s (%d artworks)\n", args[1], ex.Title, len(ex.ArtworkIDs))
			return nil
		},
	}
}

func (a *App) createExhibitionsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <exhibition-id>",
		Short: "Delete an exhibition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.Exhibitions()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Delete(args[0]); err != nil {
				return err
			}

			cmd.Printf("Deleted exhibition %s\n", args[0])
			return nil
		},
	}
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("musebrowse %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit: %s\n", a.commit)
				cmd.Printf("  built:  %s\n", a.date)
			}
		},
	}
}

// renderPage writes one result page in the configured output format.
func (a *App) renderPage(cmd *cobra.Command, result *musebrowse.Result) error {
	switch strings.ToLower(a.config.Format) {
	case "json":
		return writeJSON(cmd, result)
	case "yaml":
		return writeYAML(cmd, result)
	default:
		if len(result.Items) == 0 {
			cmd.Println("No artworks found")
			return nil
		}

		for _, art := range result.Items {
			cmd.Printf("%-14s %s", art.ID, art.Title)
			if art.Artist != "" {
				cmd.Printf(" - %s", art.Artist)
			}
			if art.Year != nil {
				cmd.Printf(" (%d)", *art.Year)
			}
			cmd.Println()
		}
		cmd.Printf("\nPage %d of %d (%d artworks loaded", result.Page.Page, result.TotalPages, result.TotalItems)
		if estimated := result.EstimatedTotal(); estimated > result.TotalItems {
			cmd.Printf(", ~%d matching across catalogs", estimated)
		}
		cmd.Println(")")
		return nil
	}
}

// renderArtwork writes one full artwork record in the configured format.
func (a *App) renderArtwork(cmd *cobra.Command, art *artworks.Artwork) error {
	switch strings.ToLower(a.config.Format) {
	case "json":
		return writeJSON(cmd, art)
	case "yaml":
		return writeYAML(cmd, art)
	default:
		cmd.Printf("%s\n", art.Title)
		if art.Artist != "" {
			cmd.Printf("Artist:  %s\n", art.Artist)
		}
		if art.Year != nil {
			cmd.Printf("Year:    %d\n", *art.Year)
		}
		if art.Medium != "" {
			cmd.Printf("Medium:  %s\n", art.Medium)
		}
		if art.ImageURL != "" {
			cmd.Printf("Image:   %s\n", art.ImageURL)
		}
		if art.Description != "" {
			cmd.Printf("\n%s\n", art.Description)
		}
		if art.Detail != nil {
			if art.Detail.Provenance != "" {
				cmd.Printf("\nProvenance: %s\n", art.Detail.Provenance)
			}
			if len(art.Detail.Materials) > 0 {
				cmd.Printf("Materials:  %s\n", strings.Join(art.Detail.Materials, ", "))
			}
			if len(art.Detail.Techniques) > 0 {
				cmd.Printf("Techniques: %s\n", strings.Join(art.Detail.Techniques, ", "))
			}
			if len(art.Detail.ExhibitionHistory) > 0 {
				cmd.Println("\nExhibition history:")
				for _, entry := range art.Detail.ExhibitionHistory {
					cmd.Printf("  - %s\n", entry)
				}
			}
		}
		return nil
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}

func writeYAML(cmd *cobra.Command, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	cmd.Print(string(data))
	return nil
}
