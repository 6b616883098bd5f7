package http

import (
	"context"
	"net/http"
	"strconv"

	syncx "github.com/mind-engage/mindengage-grader/internal/sync"
)

// EventFeed reads the event log; *syncx.EventRepo satisfies it.
type EventFeed interface {
	Since(ctx context.Context, after int64, limit int) ([]syncx.Event, error)
}

// GET /events?after=0&limit=100
// Consumers pass the last seq they saw as after.
func ListEventsHandler(feed EventFeed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var after int64
		if v := r.URL.Query().Get("after"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				http.Error(w, "after must be a sequence number", http.StatusBadRequest)
				return
			}
			after = n
		}
		limit := parseIntDefault(r.URL.Query().Get("limit"), 100)
		if limit > 500 {
			limit = 500
		}
		events, err := feed.Since(r.Context(), after, limit)
		if err != nil {
			httpError(w, r, err)
			return
		}
		if events == nil {
			events = []syncx.Event{}
		}
		writeJSON(w, http.StatusOK, events)
	}
}
