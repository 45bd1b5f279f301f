package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/musebrowse/musebrowse/pkg/errors"
)

// DecodeResponse reads and decodes a JSON response into target, closing the
// body. Non-200 statuses map to *errors.APIError attributed to the provider.
func DecodeResponse(provider string, resp *http.Response, target any) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		return &errors.APIError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    "not found",
			Err:        errors.ErrNotFound,
		}
	default:
		return &errors.APIError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body), 512),
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", provider+" response", err)
	}

	return nil
}

// truncate bounds error messages built from response bodies.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
