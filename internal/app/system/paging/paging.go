// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultAmount is the fallback window size when a request supplies no
// endIndex. Mirrors the default_results_amount config key; callers that have
// config in hand pass their own default to ParseWindow.
const DefaultAmount = 20

// MaxAmount caps a single window so a caller cannot ask for the whole
// collection in one request.
const MaxAmount = 500

// Window describes one offset/limit page of a sorted result set.
// Start and End are 0-based document offsets ([Start, End)); the window is
// not a cursor, so callers must tolerate result-set drift under concurrent
// writes.
type Window struct {
	Start     int64
	End       int64
	SortOrder int    // 1 ascending, -1 descending
	SortBy    string // store-side field name
}

// Limit returns the number of documents the window spans.
func (w Window) Limit() int64 {
	n := w.End - w.Start
	if n < 1 {
		return 1
	}
	return n
}

// ParseWindow extracts startIndex/endIndex/sortOrder/sortBy query parameters.
//
// startIndex and endIndex are 0-based offsets, sortOrder is "-" for
// descending (anything else ascending), and sortBy must be one of the
// caller's allowed fields (the first allowed field is the default).
func ParseWindow(r *http.Request, defaultAmount int, allowedSortFields ...string) Window {
	if defaultAmount <= 0 {
		defaultAmount = DefaultAmount
	}

	start := parseIndex(query.Get(r, "startIndex"), 0)
	end := parseIndex(query.Get(r, "endIndex"), start+int64(defaultAmount))
	if end <= start {
		end = start + int64(defaultAmount)
	}
	if end-start > MaxAmount {
		end = start + MaxAmount
	}

	order := 1
	if query.Get(r, "sortOrder") == "-" {
		order = -1
	}

	sortBy := allowedSortFields[0]
	if want := strings.TrimSpace(query.Get(r, "sortBy")); want != "" {
		for _, f := range allowedSortFields {
			if want == f {
				sortBy = f
				break
			}
		}
	}

	return Window{Start: start, End: end, SortOrder: order, SortBy: sortBy}
}

func parseIndex(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return def
	}
	return n
}
