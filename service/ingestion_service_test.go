package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"leasewise-backend/connectors"
	"leasewise-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConnector returns a fixed batch or error.
type fakeConnector struct {
	name    string
	records []models.LegalRecord
	err     error
}

func (c *fakeConnector) Name() string { return c.name }

func (c *fakeConnector) FetchBatch(ctx context.Context, criteria connectors.Criteria) ([]models.LegalRecord, error) {
	return c.records, c.err
}

// fakeRecordStore emulates upsert-by-external-id in memory, including
// created_at preservation across repeated upserts.
type fakeRecordStore struct {
	mu      sync.Mutex
	rows    map[string]models.LegalRecord
	upserts int
	failFor map[string]bool
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{
		rows:    make(map[string]models.LegalRecord),
		failFor: make(map[string]bool),
	}
}

func (s *fakeRecordStore) Upsert(ctx context.Context, record *models.LegalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	if s.failFor[record.ExternalID] {
		return errors.New("write failed")
	}

	now := time.Now()
	if existing, ok := s.rows[record.ExternalID]; ok {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		record.SourceKind = existing.SourceKind
	} else {
		record.ID = uuid.New()
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	s.rows[record.ExternalID] = *record
	return nil
}

type fakeTemplateStore struct {
	byState map[string][]models.DocumentTemplate
}

func (s *fakeTemplateStore) ListActiveByState(ctx context.Context, stateID string) ([]models.DocumentTemplate, error) {
	return s.byState[stateID], nil
}

type fakeArchive struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func (a *fakeArchive) Save(ctx context.Context, name string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.saved == nil {
		a.saved = make(map[string][]byte)
	}
	a.saved[name] = data
	return name, nil
}

func caCriteria() connectors.Criteria {
	return connectors.Criteria{States: []string{"CA"}}
}

func TestRunRequiresConnectorsAndStore(t *testing.T) {
	_, err := NewIngestionService().Run(context.Background(), caCriteria())
	assert.ErrorIs(t, err, ErrNoSourcesConfigured)

	_, err = NewIngestionService(
		IngestionWithConnectors(&fakeConnector{name: "a"}),
	).Run(context.Background(), caCriteria())
	assert.ErrorIs(t, err, ErrRecordStoreNotSet)
}

func TestRunClassifiesAndPersistsEndToEnd(t *testing.T) {
	lease := models.DocumentTemplate{ID: uuid.New(), Title: "California Residential Lease Agreement", TemplateType: "lease", Active: true}
	store := newFakeRecordStore()
	archive := &fakeArchive{}

	svc := NewIngestionService(
		IngestionWithConnectors(&fakeConnector{
			name: "openstates",
			records: []models.LegalRecord{
				{
					ExternalID:  "os_ca_1",
					StateID:     "CA",
					Title:       "Tenant Protection and Rent Stabilization Act",
					Description: "Caps annual rent increases and adds just cause eviction requirements.",
					SourceKind:  models.SourceStateBill,
				},
				{
					ExternalID:  "fr_low_1",
					StateID:     "US",
					Title:       "Annual Report on Federal Park Maintenance",
					Description: "Summarizes trail and facility repairs.",
					SourceKind:  models.SourceFederalRegister,
				},
			},
		}),
		IngestionWithRecordStore(store),
		IngestionWithTemplateStore(&fakeTemplateStore{byState: map[string][]models.DocumentTemplate{"CA": {lease}}}),
		IngestionWithArchive(archive),
	)

	stats, err := svc.Run(context.Background(), caCriteria())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Fetched)
	assert.Equal(t, 2, stats.Classified)
	assert.Equal(t, 2, stats.Upserted)
	assert.Zero(t, stats.UpsertErrors)
	assert.Len(t, archive.saved, 1)

	high := store.rows["os_ca_1"]
	assert.Equal(t, models.RelevanceHigh, high.RelevanceLevel)
	assert.NotEmpty(t, high.Rationale)
	assert.Empty(t, high.AffectedTemplateIDs, "keyword path never claims template impact")
	assert.Contains(t, high.AffectedCategories, models.CategoryRentIncreases)
	assert.Contains(t, high.AffectedCategories, models.CategoryEvictions)

	low := store.rows["fr_low_1"]
	assert.Equal(t, models.RelevanceLow, low.RelevanceLevel)
	assert.Empty(t, low.AffectedCategories)
}

func TestRunIsIdempotentAcrossRepeatedBatches(t *testing.T) {
	store := newFakeRecordStore()
	records := []models.LegalRecord{{
		ExternalID:  "os_ca_1",
		StateID:     "CA",
		Title:       "Security deposit return deadlines",
		Description: "Shortens the deposit return window.",
		SourceKind:  models.SourceStateBill,
	}}

	svc := NewIngestionService(
		IngestionWithConnectors(&fakeConnector{name: "openstates", records: records}),
		IngestionWithRecordStore(store),
	)

	_, err := svc.Run(context.Background(), caCriteria())
	require.NoError(t, err)
	first := store.rows["os_ca_1"]

	_, err = svc.Run(context.Background(), caCriteria())
	require.NoError(t, err)
	second := store.rows["os_ca_1"]

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	require.Len(t, store.rows, 1)
}

func TestRunDeduplicatesAcrossConnectors(t *testing.T) {
	store := newFakeRecordStore()
	shared := models.LegalRecord{
		ExternalID:  "os_shared",
		StateID:     "CA",
		Title:       "Landlord entry notice requirements",
		Description: "Sets notice periods before entry.",
	}

	svc := NewIngestionService(
		IngestionWithConnectors(
			&fakeConnector{name: "a", records: []models.LegalRecord{shared}},
			&fakeConnector{name: "b", records: []models.LegalRecord{shared}},
		),
		IngestionWithRecordStore(store),
	)

	stats, err := svc.Run(context.Background(), caCriteria())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Fetched)
	assert.Equal(t, 1, store.upserts)
}

func TestRunContinuesPastFailedConnector(t *testing.T) {
	store := newFakeRecordStore()

	svc := NewIngestionService(
		IngestionWithConnectors(
			&fakeConnector{name: "down", err: errors.New("connection refused")},
			&fakeConnector{name: "up", records: []models.LegalRecord{{
				ExternalID: "os_up_1",
				StateID:    "CA",
				Title:      "Rental housing registry",
			}}},
		),
		IngestionWithRecordStore(store),
	)

	stats, err := svc.Run(context.Background(), caCriteria())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.SourceErrors)
	assert.Equal(t, 1, stats.Upserted)
}

func TestRunTalliesUpsertErrorsWithoutAborting(t *testing.T) {
	store := newFakeRecordStore()
	store.failFor["os_bad"] = true

	svc := NewIngestionService(
		IngestionWithConnectors(&fakeConnector{name: "src", records: []models.LegalRecord{
			{ExternalID: "os_bad", StateID: "CA", Title: "Tenant notice rules"},
			{ExternalID: "os_good", StateID: "CA", Title: "Lease renewal rules"},
		}}),
		IngestionWithRecordStore(store),
	)

	stats, err := svc.Run(context.Background(), caCriteria())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.UpsertErrors)
	assert.Equal(t, 1, stats.Upserted)
	assert.Contains(t, store.rows, "os_good")
}

func TestRunEmptyBatchIsNotAnError(t *testing.T) {
	store := newFakeRecordStore()

	svc := NewIngestionService(
		IngestionWithConnectors(&fakeConnector{name: "quiet"}),
		IngestionWithRecordStore(store),
	)

	stats, err := svc.Run(context.Background(), caCriteria())

	require.NoError(t, err)
	assert.Zero(t, stats.Fetched)
	assert.Zero(t, store.upserts)
}
