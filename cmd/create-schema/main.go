package main

import (
	"context"
	"fmt"
	"log"

	"leasewise-backend/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()

	tables := []struct {
		name string
		sql  string
	}{
		{
			name: "legal_updates",
			sql: `
CREATE TABLE IF NOT EXISTS legal_updates (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),

    -- Source identity: the only key repeated ingestion converges on
    external_id VARCHAR(255) NOT NULL UNIQUE,
    state_id VARCHAR(10) NOT NULL,
    native_number VARCHAR(100) NOT NULL,

    -- Content
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    source_kind VARCHAR(50) NOT NULL CHECK (source_kind IN ('federal_register', 'state_bill')),
    status_label VARCHAR(100) NOT NULL,
    last_action_date TIMESTAMP,
    last_action_text TEXT,
    source_url TEXT NOT NULL,

    -- Classification
    relevance_level VARCHAR(20) NOT NULL CHECK (relevance_level IN ('high', 'medium', 'low', 'dismissed')),
    rationale TEXT NOT NULL,
    affected_template_ids JSONB DEFAULT '[]'::jsonb,
    affected_categories JSONB DEFAULT '[]'::jsonb,
    recommended_changes TEXT,

    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);`,
		},
		{
			name: "document_templates",
			sql: `
CREATE TABLE IF NOT EXISTS document_templates (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    state_id VARCHAR(10) NOT NULL,
    key VARCHAR(100) NOT NULL,
    title VARCHAR(255) NOT NULL,
    template_type VARCHAR(50) NOT NULL,
    active BOOLEAN DEFAULT true,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),
    CONSTRAINT document_templates_state_key_unique UNIQUE (state_id, key)
);`,
		},
		{
			name: "compliance_cards",
			sql: `
CREATE TABLE IF NOT EXISTS compliance_cards (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    state_id VARCHAR(10) NOT NULL,
    key VARCHAR(100) NOT NULL,
    category VARCHAR(50) NOT NULL,
    title VARCHAR(255) NOT NULL,
    summary TEXT NOT NULL,
    body TEXT NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),
    CONSTRAINT compliance_cards_state_key_unique UNIQUE (state_id, key)
);`,
		},
		{
			name: "communication_templates",
			sql: `
CREATE TABLE IF NOT EXISTS communication_templates (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    state_id VARCHAR(10) NOT NULL,
    key VARCHAR(100) NOT NULL,
    kind VARCHAR(50) NOT NULL,
    title VARCHAR(255) NOT NULL,
    subject VARCHAR(255) NOT NULL,
    body TEXT NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),
    CONSTRAINT communication_templates_state_key_unique UNIQUE (state_id, key)
);`,
		},
		{
			name: "users",
			sql: `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(255) NOT NULL,
    name VARCHAR(255) NOT NULL,
    role VARCHAR(50) NOT NULL DEFAULT 'member',
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);`,
		},
	}

	for _, table := range tables {
		if _, err := pool.Exec(ctx, table.sql); err != nil {
			log.Fatalf("Failed to create %s table: %v", table.name, err)
		}
		log.Printf("✓ Created table: %s", table.name)
	}

	indexes := []struct {
		name string
		sql  string
	}{
		{
			name: "Legal updates by state and recency",
			sql:  "CREATE INDEX IF NOT EXISTS idx_legal_updates_state_action ON legal_updates(state_id, last_action_date DESC);",
		},
		{
			name: "Legal updates by relevance",
			sql:  "CREATE INDEX IF NOT EXISTS idx_legal_updates_relevance ON legal_updates(relevance_level) WHERE relevance_level <> 'dismissed';",
		},
		{
			name: "Active templates by state",
			sql:  "CREATE INDEX IF NOT EXISTS idx_document_templates_state_active ON document_templates(state_id) WHERE active = true;",
		},
		{
			name: "Compliance cards by state and category",
			sql:  "CREATE INDEX IF NOT EXISTS idx_compliance_cards_state_category ON compliance_cards(state_id, category);",
		},
	}

	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx.sql); err != nil {
			log.Printf("Warning: Failed to create index %s: %v", idx.name, err)
		} else {
			log.Printf("✓ Created index: %s", idx.name)
		}
	}

	fmt.Println("\n✅ Database schema created successfully!")
	fmt.Printf("   Tables: %d\n", len(tables))
	fmt.Printf("   Indexes: %d\n", len(indexes))
}
