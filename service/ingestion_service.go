package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"leasewise-backend/connectors"
	"leasewise-backend/models"

	"golang.org/x/sync/errgroup"
)

// LegalRecordStore persists canonical legal records idempotently.
type LegalRecordStore interface {
	Upsert(ctx context.Context, record *models.LegalRecord) error
}

// TemplateStore reads the active document-template set per state.
type TemplateStore interface {
	ListActiveByState(ctx context.Context, stateID string) ([]models.DocumentTemplate, error)
}

// RecordClassifier classifies one record against its jurisdiction's
// active templates. Implementations must degrade internally and never
// return an error.
type RecordClassifier interface {
	ClassifyRecord(ctx context.Context, record models.LegalRecord, templates []models.DocumentTemplate) models.ClassificationResult
}

// BatchArchive stores a raw ingestion artifact for audit.
type BatchArchive interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// IngestionService runs the ingest-classify-persist pipeline as one
// batch: fetch from every connector, dedupe, classify with bounded
// concurrency, validate impact, upsert. All external calls complete
// before any persistence begins, so a slow source never blocks
// unrelated records.
type IngestionService struct {
	connectors      []connectors.Connector
	classifier      RecordClassifier
	recordStore     LegalRecordStore
	templateStore   TemplateStore
	archive         BatchArchive
	classifyWorkers int
}

// IngestionServiceOption is a functional option for IngestionService
type IngestionServiceOption func(*IngestionService)

// IngestionWithConnectors sets the source connectors
func IngestionWithConnectors(conns ...connectors.Connector) IngestionServiceOption {
	return func(s *IngestionService) {
		s.connectors = append(s.connectors, conns...)
	}
}

// IngestionWithClassifier sets the record classifier
func IngestionWithClassifier(classifier RecordClassifier) IngestionServiceOption {
	return func(s *IngestionService) {
		s.classifier = classifier
	}
}

// IngestionWithRecordStore sets the legal record store
func IngestionWithRecordStore(store LegalRecordStore) IngestionServiceOption {
	return func(s *IngestionService) {
		s.recordStore = store
	}
}

// IngestionWithTemplateStore sets the template store
func IngestionWithTemplateStore(store TemplateStore) IngestionServiceOption {
	return func(s *IngestionService) {
		s.templateStore = store
	}
}

// IngestionWithArchive sets the raw-batch archive
func IngestionWithArchive(archive BatchArchive) IngestionServiceOption {
	return func(s *IngestionService) {
		s.archive = archive
	}
}

// IngestionWithClassifyWorkers bounds classification concurrency
func IngestionWithClassifyWorkers(workers int) IngestionServiceOption {
	return func(s *IngestionService) {
		s.classifyWorkers = workers
	}
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(opts ...IngestionServiceOption) *IngestionService {
	s := &IngestionService{
		classifyWorkers: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	ErrNoSourcesConfigured = errors.New("no source connectors configured")
	ErrRecordStoreNotSet   = errors.New("legal record store not set")
)

// RunStats reports the outcome of one ingestion run.
type RunStats struct {
	Fetched      int
	Classified   int
	Upserted     int
	UpsertErrors int
	SourceErrors int
}

// Run executes one full ingestion batch. Re-running on identical
// upstream data converges: upserts are keyed on external id, so a
// repeated run is a no-op on unchanged content.
func (s *IngestionService) Run(ctx context.Context, criteria connectors.Criteria) (*RunStats, error) {
	stats := &RunStats{}
	if len(s.connectors) == 0 {
		return stats, ErrNoSourcesConfigured
	}
	if s.recordStore == nil {
		return stats, ErrRecordStoreNotSet
	}

	// 1. Fetch from every source. A failed connector contributes nothing;
	// the batch continues.
	var records []models.LegalRecord
	reachable := 0
	for _, conn := range s.connectors {
		batch, err := conn.FetchBatch(ctx, criteria)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			log.Printf("Warning: connector %s failed: %v", conn.Name(), err)
			stats.SourceErrors++
			continue
		}
		reachable++
		records = append(records, batch...)
	}

	records = connectors.DedupeRecords(records)
	stats.Fetched = len(records)

	if stats.Fetched == 0 {
		if reachable == 0 {
			log.Printf("Error: no legal data sources reachable, pipeline produced nothing")
		} else {
			log.Println("No new legal records fetched")
		}
		return stats, nil
	}

	s.archiveBatch(ctx, records)

	// 2. Load active templates per state once, before any classification,
	// so no call holds store access across a network call.
	templatesByState := s.loadTemplates(ctx, criteria.States)

	// 3. Classify with a bounded worker pool. Classifier errors degrade
	// internally; only cancellation stops the pool.
	results := make([]models.ClassificationResult, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.classifyWorkers)
	for i := range records {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			record := records[i]
			results[i] = s.classify(gctx, record, templatesByState[record.StateID])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	stats.Classified = len(records)

	// 4. Persist. Write failures are tallied per record and never abort
	// the remaining upserts.
	for i := range records {
		record := records[i]
		applyClassification(&record, results[i])
		if err := s.recordStore.Upsert(ctx, &record); err != nil {
			log.Printf("Warning: failed to upsert %s: %v", record.ExternalID, err)
			stats.UpsertErrors++
			continue
		}
		stats.Upserted++
	}

	log.Printf("Ingestion run complete: fetched=%d classified=%d upserted=%d upsert_errors=%d source_errors=%d",
		stats.Fetched, stats.Classified, stats.Upserted, stats.UpsertErrors, stats.SourceErrors)
	return stats, nil
}

func (s *IngestionService) classify(ctx context.Context, record models.LegalRecord, templates []models.DocumentTemplate) models.ClassificationResult {
	if s.classifier == nil {
		return ValidateClassification(FallbackClassify(record), templates)
	}
	return s.classifier.ClassifyRecord(ctx, record, templates)
}

func (s *IngestionService) loadTemplates(ctx context.Context, states []string) map[string][]models.DocumentTemplate {
	templatesByState := make(map[string][]models.DocumentTemplate)
	if s.templateStore == nil {
		return templatesByState
	}
	for _, state := range states {
		templates, err := s.templateStore.ListActiveByState(ctx, state)
		if err != nil {
			log.Printf("Warning: failed to load templates for %s: %v", state, err)
			continue
		}
		templatesByState[state] = templates
	}
	return templatesByState
}

// archiveBatch stores the normalized batch for audit. Archive failures
// are logged, never fatal.
func (s *IngestionService) archiveBatch(ctx context.Context, records []models.LegalRecord) {
	if s.archive == nil {
		return
	}
	data, err := json.Marshal(records)
	if err != nil {
		log.Printf("Warning: failed to marshal batch for archive: %v", err)
		return
	}
	name := fmt.Sprintf("ingest/%s/batch.json", time.Now().UTC().Format("2006-01-02T150405Z"))
	if _, err := s.archive.Save(ctx, name, data); err != nil {
		log.Printf("Warning: failed to archive batch: %v", err)
	}
}

func applyClassification(record *models.LegalRecord, result models.ClassificationResult) {
	record.RelevanceLevel = result.RelevanceLevel
	record.Rationale = result.Rationale
	record.AffectedTemplateIDs = models.StringList(result.AffectedTemplateIDs)
	record.AffectedCategories = models.CategoryList(result.AffectedCategories)
	record.RecommendedChanges = result.RecommendedChanges
}
