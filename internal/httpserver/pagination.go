package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
)

// ParseLimit extracts the "limit" query parameter, clamping it to
// [1, max] and falling back to def when absent.
func ParseLimit(r *http.Request, def, max int) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	if n > max {
		n = max
	}
	return n, nil
}
