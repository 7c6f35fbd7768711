package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"leasewise-backend/models"

	"golang.org/x/sync/errgroup"
)

const (
	frPerPage            = 50
	frMaxPagesPerRequest = 3
	// Only the first few topical terms are searched per run to avoid
	// request explosion against the shared date-window queries.
	frMaxSearchTerms = 3
)

// frAgencySlugs are the agencies whose rulemaking touches residential
// landlord-tenant practice.
var frAgencySlugs = []string{
	"housing-and-urban-development-department",
	"consumer-financial-protection-bureau",
}

// frSearchTerms is the candidate topical term list; only the first
// frMaxSearchTerms are used per run.
var frSearchTerms = []string{
	"landlord tenant",
	"residential lease",
	"fair housing",
	"security deposit",
	"eviction",
	"rental assistance",
}

// frRelevanceKeywords is the conservative pre-filter applied before the
// (costlier) classifier sees a document.
var frRelevanceKeywords = []string{
	"landlord",
	"tenant",
	"lease",
	"rental",
	"renter",
	"eviction",
	"housing",
	"dwelling",
}

// FederalRegisterConnector fetches regulatory documents from the Federal
// Register API. Requests across independent (agency, term) pairs run
// concurrently; the source does not rate-limit, so parallelism is bounded
// only by the worker count.
type FederalRegisterConnector struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	workers    int
}

// NewFederalRegisterConnector creates the connector. A missing API key is
// tolerated (reduced rate limits) and logged once here.
func NewFederalRegisterConnector(baseURL, apiKey string, workers int) *FederalRegisterConnector {
	if apiKey == "" {
		log.Printf("Warning: FEDERAL_REGISTER_API_KEY not set, requests will use reduced rate limits")
	}
	if workers <= 0 {
		workers = 4
	}
	return &FederalRegisterConnector{
		httpClient: defaultHTTPClient(),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		workers:    workers,
	}
}

// Name implements Connector.
func (c *FederalRegisterConnector) Name() string {
	return "federal_register"
}

// FRDocument is the source-native document shape. All fields are optional
// in the payload; the normalizer supplies fallbacks.
type FRDocument struct {
	DocumentNumber  string     `json:"document_number"`
	Title           string     `json:"title"`
	Abstract        string     `json:"abstract"`
	DocumentType    string     `json:"type"`
	PublicationDate string     `json:"publication_date"`
	HTMLURL         string     `json:"html_url"`
	Topics          []string   `json:"topics"`
	Agencies        []FRAgency `json:"agencies"`
}

// FRAgency is the nested agency reference on a document.
type FRAgency struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type frResponse struct {
	Count       int          `json:"count"`
	Results     []FRDocument `json:"results"`
	NextPageURL string       `json:"next_page_url"`
}

// FetchBatch issues one request per (agency, date-window) pair plus one per
// capped topical term, follows pagination, and deduplicates by
// document_number before normalizing. A failed request contributes an
// empty result; it never aborts the batch.
func (c *FederalRegisterConnector) FetchBatch(ctx context.Context, criteria Criteria) ([]models.LegalRecord, error) {
	urls := c.buildRequestURLs(criteria)

	var mu sync.Mutex
	byNumber := make(map[string]FRDocument)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, u := range urls {
		u := u
		g.Go(func() error {
			docs, err := c.fetchAllPages(gctx, u)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Printf("Warning: federal register request failed: %v", err)
				return nil
			}
			mu.Lock()
			for _, doc := range docs {
				if doc.DocumentNumber == "" {
					continue
				}
				if _, seen := byNumber[doc.DocumentNumber]; !seen {
					byNumber[doc.DocumentNumber] = doc
				}
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]models.LegalRecord, 0, len(byNumber))
	for _, doc := range byNumber {
		if !c.IsRelevant(doc) {
			continue
		}
		records = append(records, NormalizeFederalRegisterDocument(doc))
	}
	return records, nil
}

// IsRelevant is a conservative OR-matched substring pre-filter over
// title, abstract, and topics.
func (c *FederalRegisterConnector) IsRelevant(doc FRDocument) bool {
	text := strings.ToLower(doc.Title + " " + doc.Abstract + " " + strings.Join(doc.Topics, " "))
	return containsAnyKeyword(text, frRelevanceKeywords)
}

func (c *FederalRegisterConnector) buildRequestURLs(criteria Criteria) []string {
	var urls []string
	for _, slug := range frAgencySlugs {
		params := c.baseQuery(criteria)
		params.Add("conditions[agencies][]", slug)
		urls = append(urls, c.baseURL+"/documents.json?"+params.Encode())
	}
	terms := frSearchTerms
	if len(terms) > frMaxSearchTerms {
		terms = terms[:frMaxSearchTerms]
	}
	for _, term := range terms {
		params := c.baseQuery(criteria)
		params.Set("conditions[term]", term)
		urls = append(urls, c.baseURL+"/documents.json?"+params.Encode())
	}
	return urls
}

func (c *FederalRegisterConnector) baseQuery(criteria Criteria) url.Values {
	params := url.Values{}
	params.Set("per_page", fmt.Sprintf("%d", frPerPage))
	params.Set("order", "newest")
	if !criteria.Since.IsZero() {
		params.Set("conditions[publication_date][gte]", criteria.Since.Format("2006-01-02"))
	}
	if !criteria.Until.IsZero() {
		params.Set("conditions[publication_date][lte]", criteria.Until.Format("2006-01-02"))
	}
	for _, field := range []string{"document_number", "title", "abstract", "type", "publication_date", "html_url", "topics", "agencies"} {
		params.Add("fields[]", field)
	}
	return params
}

// fetchAllPages follows next_page_url up to frMaxPagesPerRequest pages.
func (c *FederalRegisterConnector) fetchAllPages(ctx context.Context, requestURL string) ([]FRDocument, error) {
	var docs []FRDocument
	for page := 0; page < frMaxPagesPerRequest && requestURL != ""; page++ {
		resp, err := c.fetchPage(ctx, requestURL)
		if err != nil {
			return nil, err
		}
		docs = append(docs, resp.Results...)
		requestURL = resp.NextPageURL
	}
	return docs, nil
}

func (c *FederalRegisterConnector) fetchPage(ctx context.Context, requestURL string) (*frResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode)
	}

	var apiResp frResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &apiResp, nil
}
