package main

import (
	"context"
	"log"
	"time"

	"leasewise-backend/config"
	"leasewise-backend/connectors"
	"leasewise-backend/repository"
	"leasewise-backend/service"
	"leasewise-backend/storage"

	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

func main() {
	// Load .env file from project root (relative to cmd/ingest-legal-updates/)
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := initPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to initialize Postgres:", err)
	}
	defer db.Close()

	recordRepo := repository.NewLegalRecordRepository(db)
	templateRepo := repository.NewTemplateRepository(db)

	geminiClient, err := initGemini(cfg.Gemini)
	if err != nil {
		log.Fatal("Failed to initialize Gemini:", err)
	}
	if geminiClient != nil {
		defer geminiClient.Close()
	}

	classifier := service.NewClassifierService(
		service.ClassifierWithClient(geminiClient),
		service.ClassifierWithModel(cfg.Gemini.Model),
		service.ClassifierWithTimeout(cfg.Gemini.Timeout),
	)

	federalRegister := connectors.NewFederalRegisterConnector(
		cfg.FederalRegister.BaseURL,
		cfg.FederalRegister.APIKey,
		cfg.FederalRegister.Workers,
	)
	openStates := connectors.NewOpenStatesConnector(
		cfg.OpenStates.BaseURL,
		cfg.OpenStates.APIKey,
		connectors.NewRateGate(cfg.OpenStates.MinInterval),
		cfg.OpenStates.Cooldown,
	)

	opts := []service.IngestionServiceOption{
		service.IngestionWithConnectors(federalRegister, openStates),
		service.IngestionWithClassifier(classifier),
		service.IngestionWithRecordStore(recordRepo),
		service.IngestionWithTemplateStore(templateRepo),
		service.IngestionWithClassifyWorkers(cfg.Ingestion.ClassifyWorkers),
	}

	if cfg.Archive.Enabled {
		archive, err := storage.NewArchiveFromEnv()
		if err != nil {
			log.Fatal("Failed to initialize archive:", err)
		}
		log.Println("Batch archive enabled")
		opts = append(opts, service.IngestionWithArchive(archive))
	}

	ingestion := service.NewIngestionService(opts...)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Ingestion.RunTimeout)
	defer cancel()

	now := time.Now().UTC()
	criteria := connectors.Criteria{
		States: cfg.Ingestion.StateList(),
		Since:  now.AddDate(0, 0, -cfg.Ingestion.LookbackDays),
		Until:  now,
	}

	stats, err := ingestion.Run(ctx, criteria)
	if err != nil {
		log.Fatalf("Ingestion run failed: %v", err)
	}

	log.Printf("Done: fetched=%d upserted=%d upsert_errors=%d source_errors=%d",
		stats.Fetched, stats.Upserted, stats.UpsertErrors, stats.SourceErrors)
}

func initPostgres(connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	log.Println("Postgres connection established")
	return pool, nil
}

// initGemini returns a nil client when no API key is configured; the
// classifier then degrades to its keyword fallback.
func initGemini(cfg config.GeminiConfig) (*genai.Client, error) {
	if cfg.APIKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set, classification will use keyword fallback")
		return nil, nil
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, err
	}

	log.Println("Gemini client initialized")
	return client, nil
}
