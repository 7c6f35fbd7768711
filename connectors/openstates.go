package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leasewise-backend/models"
)

// osJurisdictions maps supported two-letter state codes to the fixed
// OpenStates jurisdiction identifiers.
var osJurisdictions = map[string]string{
	"AZ": "ocd-jurisdiction/country:us/state:az/government",
	"CA": "ocd-jurisdiction/country:us/state:ca/government",
	"CO": "ocd-jurisdiction/country:us/state:co/government",
	"FL": "ocd-jurisdiction/country:us/state:fl/government",
	"GA": "ocd-jurisdiction/country:us/state:ga/government",
	"IL": "ocd-jurisdiction/country:us/state:il/government",
	"MA": "ocd-jurisdiction/country:us/state:ma/government",
	"NJ": "ocd-jurisdiction/country:us/state:nj/government",
	"NY": "ocd-jurisdiction/country:us/state:ny/government",
	"OH": "ocd-jurisdiction/country:us/state:oh/government",
	"OR": "ocd-jurisdiction/country:us/state:or/government",
	"PA": "ocd-jurisdiction/country:us/state:pa/government",
	"TX": "ocd-jurisdiction/country:us/state:tx/government",
	"WA": "ocd-jurisdiction/country:us/state:wa/government",
}

// osSearchTerms is the fixed candidate term list; one request is issued
// per (state, term) pair.
var osSearchTerms = []string{
	"landlord tenant",
	"security deposit",
	"eviction",
	"rent increase",
	"residential lease",
	"fair housing",
}

// osRelevanceKeywords pre-filters bills before classification.
var osRelevanceKeywords = []string{
	"landlord",
	"tenant",
	"lease",
	"rental",
	"renter",
	"eviction",
	"housing",
	"security deposit",
}

// OpenStatesConnector fetches state bills from the OpenStates API. The
// source enforces a strict per-second quota, so every request goes
// through a serializing RateGate; a 429 response triggers one
// cool-down-and-retry, the only automatic retry in the pipeline.
type OpenStatesConnector struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	gate       *RateGate
	cooldown   time.Duration
}

// NewOpenStatesConnector creates the connector. A missing API key
// disables the connector for the run (logged once at fetch time).
func NewOpenStatesConnector(baseURL, apiKey string, gate *RateGate, cooldown time.Duration) *OpenStatesConnector {
	return &OpenStatesConnector{
		httpClient: defaultHTTPClient(),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		gate:       gate,
		cooldown:   cooldown,
	}
}

// Name implements Connector.
func (c *OpenStatesConnector) Name() string {
	return "openstates"
}

// OSBill is the source-native bill shape.
type OSBill struct {
	ID         string       `json:"id"`
	Identifier string       `json:"identifier"`
	Title      string       `json:"title"`
	Session    string       `json:"session"`
	Abstracts  []OSAbstract `json:"abstracts"`
	Actions    []OSAction   `json:"actions"`
	SourceURL  string       `json:"openstates_url"`
}

// OSAbstract is one abstract attached to a bill.
type OSAbstract struct {
	Abstract string `json:"abstract"`
}

// OSAction is one recorded action on a bill. Order is the source's own
// ordering field; the action array itself carries no ordering guarantee.
type OSAction struct {
	Description string `json:"description"`
	Date        string `json:"date"`
	Order       int    `json:"order"`
}

type osResponse struct {
	Results    []OSBill `json:"results"`
	Pagination struct {
		PerPage    int `json:"per_page"`
		Page       int `json:"page"`
		MaxPage    int `json:"max_page"`
		TotalItems int `json:"total_items"`
	} `json:"pagination"`
}

// FetchBatch issues one rate-gated request per (state, term) pair and
// deduplicates by native bill id before normalizing. A failed request is
// logged and contributes nothing.
func (c *OpenStatesConnector) FetchBatch(ctx context.Context, criteria Criteria) ([]models.LegalRecord, error) {
	if c.apiKey == "" {
		log.Printf("Warning: OPENSTATES_API_KEY not set, state bill connector disabled for this run")
		return nil, nil
	}

	seen := make(map[string]bool)
	var records []models.LegalRecord

	for _, state := range criteria.States {
		jurisdiction, ok := osJurisdictions[state]
		if !ok {
			log.Printf("Warning: no OpenStates jurisdiction mapping for state %s, skipping", state)
			continue
		}

		for _, term := range osSearchTerms {
			bills, err := c.searchBills(ctx, jurisdiction, term, criteria)
			if err != nil {
				if ctx.Err() != nil {
					return records, ctx.Err()
				}
				log.Printf("Warning: openstates request failed (state=%s term=%q): %v", state, term, err)
				continue
			}

			for _, bill := range bills {
				if bill.ID == "" || seen[bill.ID] {
					continue
				}
				seen[bill.ID] = true
				if !c.IsRelevant(bill) {
					continue
				}
				records = append(records, NormalizeStateBill(state, bill))
			}
		}
	}

	return records, nil
}

// IsRelevant is a conservative OR-matched substring pre-filter over the
// bill title and abstracts.
func (c *OpenStatesConnector) IsRelevant(bill OSBill) bool {
	var sb strings.Builder
	sb.WriteString(bill.Title)
	for _, a := range bill.Abstracts {
		sb.WriteString(" ")
		sb.WriteString(a.Abstract)
	}
	return containsAnyKeyword(strings.ToLower(sb.String()), osRelevanceKeywords)
}

// searchBills performs one gated search request. On a 429 it pauses for
// the cool-down period and retries once; a second 429 is treated as a
// transient failure.
func (c *OpenStatesConnector) searchBills(ctx context.Context, jurisdiction, term string, criteria Criteria) ([]OSBill, error) {
	requestURL := c.buildSearchURL(jurisdiction, term, criteria)

	bills, retryable, err := c.doSearch(ctx, requestURL)
	if err == nil {
		return bills, nil
	}
	if !retryable {
		return nil, err
	}

	log.Printf("Warning: openstates rate limit hit, cooling down for %s", c.cooldown)
	if pauseErr := c.gate.Pause(ctx, c.cooldown); pauseErr != nil {
		return nil, pauseErr
	}

	bills, _, err = c.doSearch(ctx, requestURL)
	return bills, err
}

func (c *OpenStatesConnector) doSearch(ctx context.Context, requestURL string) (bills []OSBill, retryable bool, err error) {
	if err := c.gate.Wait(ctx); err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("API rate limited: %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("API error: %d", resp.StatusCode)
	}

	var apiResp osResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, false, fmt.Errorf("failed to decode response: %w", err)
	}
	return apiResp.Results, false, nil
}

func (c *OpenStatesConnector) buildSearchURL(jurisdiction, term string, criteria Criteria) string {
	params := url.Values{}
	params.Set("jurisdiction", jurisdiction)
	params.Set("q", term)
	params.Set("sort", "updated_desc")
	params.Set("page", "1")
	params.Set("per_page", "20")
	params.Add("include", "abstracts")
	params.Add("include", "actions")
	if !criteria.Since.IsZero() {
		params.Set("updated_since", criteria.Since.Format("2006-01-02"))
	}
	return c.baseURL + "/bills?" + params.Encode()
}
