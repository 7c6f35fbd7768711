package connectors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenStatesConnector(baseURL string) (*OpenStatesConnector, *fakeClock) {
	gate, clock := newGateWithClock(1100 * time.Millisecond)
	return &OpenStatesConnector{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		apiKey:     "test-key",
		gate:       gate,
		cooldown:   time.Minute,
	}, clock
}

func osTestCriteria(states ...string) Criteria {
	return Criteria{
		States: states,
		Since:  time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func osBillResponse(bills ...OSBill) osResponse {
	var resp osResponse
	resp.Results = bills
	resp.Pagination.Page = 1
	resp.Pagination.PerPage = 20
	resp.Pagination.MaxPage = 1
	resp.Pagination.TotalItems = len(bills)
	return resp
}

func TestOpenStatesFetchBatchDisabledWithoutAPIKey(t *testing.T) {
	conn, _ := newTestOpenStatesConnector("https://example.test")
	conn.apiKey = ""

	records, err := conn.FetchBatch(context.Background(), osTestCriteria("CA"))

	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestOpenStatesFetchBatchDeduplicatesAcrossTerms(t *testing.T) {
	bill := OSBill{
		ID:         "ocd-bill/dup",
		Identifier: "AB 12",
		Title:      "Tenant Protection Act Amendments",
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		json.NewEncoder(w).Encode(osBillResponse(bill))
	}))
	defer server.Close()

	conn, _ := newTestOpenStatesConnector(server.URL)
	records, err := conn.FetchBatch(context.Background(), osTestCriteria("CA"))

	require.NoError(t, err)
	require.Len(t, records, 1, "same bill returned by every term must collapse")
	assert.Equal(t, "os_ocd-bill/dup", records[0].ExternalID)
	assert.Equal(t, "CA", records[0].StateID)
}

func TestOpenStatesRetriesOnceAfterRateLimit(t *testing.T) {
	var calls int32
	bill := OSBill{
		ID:         "ocd-bill/retry",
		Identifier: "SB 5",
		Title:      "Security Deposit Interest Requirements",
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(osBillResponse(bill))
	}))
	defer server.Close()

	conn, clock := newTestOpenStatesConnector(server.URL)
	pauseStart := clock.current

	bills, err := conn.searchBills(context.Background(), osJurisdictions["CA"], "security deposit", osTestCriteria("CA"))

	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.GreaterOrEqual(t, clock.current.Sub(pauseStart), conn.cooldown, "cool-down must elapse before the retry")
}

func TestOpenStatesSecondRateLimitIsAFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	conn, _ := newTestOpenStatesConnector(server.URL)
	_, err := conn.searchBills(context.Background(), osJurisdictions["CA"], "eviction", osTestCriteria("CA"))

	assert.Error(t, err)
}

func TestOpenStatesFetchBatchSkipsUnknownStates(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(osBillResponse())
	}))
	defer server.Close()

	conn, _ := newTestOpenStatesConnector(server.URL)
	records, err := conn.FetchBatch(context.Background(), osTestCriteria("ZZ"))

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestOpenStatesRequestsAreRateGated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(osBillResponse())
	}))
	defer server.Close()

	conn, clock := newTestOpenStatesConnector(server.URL)
	_, err := conn.FetchBatch(context.Background(), osTestCriteria("CA"))
	require.NoError(t, err)

	// One request per term; every gap after the first request waits out
	// the minimum interval on the fake clock.
	require.Len(t, clock.slept, len(osSearchTerms)-1)
	for _, d := range clock.slept {
		assert.Greater(t, d, time.Duration(0))
	}
}

func TestOpenStatesBuildSearchURL(t *testing.T) {
	conn, _ := newTestOpenStatesConnector("https://v3.openstates.org")
	u := conn.buildSearchURL(osJurisdictions["WA"], "rent increase", osTestCriteria("WA"))

	assert.Contains(t, u, "jurisdiction=ocd-jurisdiction%2Fcountry%3Aus%2Fstate%3Awa%2Fgovernment")
	assert.Contains(t, u, "q=rent+increase")
	assert.Contains(t, u, "updated_since=2025-05-01")
	assert.Contains(t, u, "include=abstracts")
	assert.Contains(t, u, "include=actions")
	assert.Contains(t, u, "page=1")
}
