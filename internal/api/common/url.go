package common

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// GetURLParam returns a URL parameter in decoded form. chi matches on
// r.URL.RawPath when it is set (e.g. for %2F) and on the already decoded
// r.URL.Path otherwise, so the value is unescaped only in the first case.
// Any non-empty value is accepted; activity names may be blank or contain '%'.
func GetURLParam(r *http.Request, paramName string) (string, error) {
	value := chi.URLParam(r, paramName)
	if value == "" {
		return "", fmt.Errorf("%s is required", paramName)
	}

	if r.URL.RawPath == "" {
		return value, nil
	}

	decoded, err := url.PathUnescape(value)
	if err != nil {
		return "", fmt.Errorf("invalid URL encoding in %s", paramName)
	}
	return decoded, nil
}
