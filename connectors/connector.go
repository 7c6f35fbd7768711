// Package connectors wraps the external legal data sources behind a
// uniform fetch interface. Each connector owns its source's
// authentication, pagination, rate limiting, and response shape, and
// returns already-normalized canonical records.
package connectors

import (
	"context"
	"net/http"
	"strings"
	"time"

	"leasewise-backend/models"
)

// Criteria scopes one ingestion run.
type Criteria struct {
	States []string  // two-letter state codes
	Since  time.Time // start of the date window
	Until  time.Time // end of the date window; zero means "now"
}

// Connector is one external legal data source.
type Connector interface {
	Name() string
	// FetchBatch returns normalized, pre-filtered, deduplicated records.
	// Individual failed requests inside a batch are logged and skipped;
	// an error is returned only when the run is cancelled or the source
	// is entirely unreachable.
	FetchBatch(ctx context.Context, criteria Criteria) ([]models.LegalRecord, error)
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// containsAnyKeyword reports whether text contains any of the given
// substrings. Callers pass lower-cased text and keywords.
func containsAnyKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
