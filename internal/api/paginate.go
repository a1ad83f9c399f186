package api

import (
	"net/http"
	"strconv"
)

const (
	defaultLimit = 10
	maxLimit     = 100
	popularLimit = 5
)

// parsePage extracts limit and skip from query parameters.
// limit defaults to 10 and is silently capped at 100; invalid values fall
// back to the defaults.
func parsePage(r *http.Request) (limit, skip int) {
	limit = defaultLimit

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if s := r.URL.Query().Get("skip"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 {
			skip = parsed
		}
	}
	return limit, skip
}
