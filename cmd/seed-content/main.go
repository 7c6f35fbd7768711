package main

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"leasewise-backend/config"
	"leasewise-backend/models"
	"leasewise-backend/repository"
	"leasewise-backend/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// Seeds the baseline state-scoped content set: document templates the
// impact mapper validates against, plus compliance cards and
// communication templates. Every row is keyed on (state_id, key), so
// re-running refreshes content in place.
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

	templateRepo := repository.NewTemplateRepository(pool)
	contentRepo := repository.NewContentRepository(pool)

	ctx := context.Background()

	templates := seedTemplates()
	cards := seedComplianceCards()
	comms := seedCommunicationTemplates()

	// A failed row is logged and tallied; the rest of the batch continues.
	var seeded, failed atomic.Int64
	tally := func(kind, state, key string, err error) {
		if err != nil {
			log.Printf("Warning: failed to seed %s %s/%s: %v", kind, state, key, err)
			failed.Add(1)
			return
		}
		seeded.Add(1)
	}

	var g errgroup.Group
	g.SetLimit(8)

	for i := range templates {
		t := &templates[i]
		g.Go(func() error {
			tally("template", t.StateID, t.Key, templateRepo.UpsertByKey(ctx, t))
			return nil
		})
	}
	for i := range cards {
		card := &cards[i]
		g.Go(func() error {
			tally("compliance card", card.StateID, card.Key, contentRepo.UpsertComplianceCard(ctx, card))
			return nil
		})
	}
	for i := range comms {
		tmpl := &comms[i]
		g.Go(func() error {
			tally("communication template", tmpl.StateID, tmpl.Key, contentRepo.UpsertCommunicationTemplate(ctx, tmpl))
			return nil
		})
	}

	g.Wait()

	if failed.Load() > 0 {
		log.Fatalf("Seeding finished with errors: seeded=%d failed=%d", seeded.Load(), failed.Load())
	}

	fmt.Println("✅ Content seeded successfully!")
	fmt.Printf("   Document templates: %d\n", len(templates))
	fmt.Printf("   Compliance cards: %d\n", len(cards))
	fmt.Printf("   Communication templates: %d\n", len(comms))
}

func seedTemplates() []models.DocumentTemplate {
	entries := []struct {
		state        string
		title        string
		templateType string
	}{
		{"CA", "California Residential Lease Agreement", "lease"},
		{"CA", "California Security Deposit Itemization", "notice"},
		{"CA", "California Three-Day Notice to Pay Rent or Quit", "notice"},
		{"CA", "California Rent Increase Notice", "notice"},
		{"NY", "New York Residential Lease Agreement", "lease"},
		{"NY", "New York Lease Renewal Notice", "notice"},
		{"TX", "Texas Residential Lease Agreement", "lease"},
		{"TX", "Texas Notice to Vacate", "notice"},
		{"FL", "Florida Residential Lease Agreement", "lease"},
		{"WA", "Washington Residential Lease Agreement", "lease"},
		{"WA", "Washington Move-In Checklist", "disclosure"},
	}

	templates := make([]models.DocumentTemplate, 0, len(entries))
	for _, e := range entries {
		templates = append(templates, models.DocumentTemplate{
			StateID:      e.state,
			Key:          service.ContentKey(e.templateType, e.title),
			Title:        e.title,
			TemplateType: e.templateType,
			Active:       true,
		})
	}
	return templates
}

func seedComplianceCards() []models.ComplianceCard {
	entries := []struct {
		state    string
		category models.ComplianceCategory
		title    string
		summary  string
		body     string
	}{
		{
			state:    "CA",
			category: models.CategoryDeposits,
			title:    "Security Deposit Limits in California",
			summary:  "California caps security deposits at one month's rent for most residential tenancies.",
			body:     "As of July 2024, California Civil Code 1950.5 limits security deposits to one month's rent regardless of furnishing, with a narrow exception for small landlords who may collect up to two months. Deposits must be returned within 21 days of move-out with an itemized statement.",
		},
		{
			state:    "CA",
			category: models.CategoryRentIncreases,
			title:    "Statewide Rent Cap (AB 1482)",
			summary:  "Annual rent increases on covered units are capped at 5% plus local CPI, up to 10%.",
			body:     "The Tenant Protection Act caps annual rent increases at 5% plus the regional CPI change, never exceeding 10% total, for covered units older than 15 years. Increases require 30 days' written notice, or 90 days when the increase exceeds 10% on exempt units.",
		},
		{
			state:    "CA",
			category: models.CategoryEvictions,
			title:    "Just Cause Eviction Requirements",
			summary:  "Terminating a covered tenancy after 12 months requires stated just cause.",
			body:     "For tenancies of 12 months or longer on covered units, landlords must state just cause to terminate. At-fault causes include nonpayment and lease breach; no-fault causes such as owner move-in require relocation assistance equal to one month's rent.",
		},
		{
			state:    "NY",
			category: models.CategoryDeposits,
			title:    "Security Deposit Rules in New York",
			summary:  "Deposits are capped at one month's rent and must be returned within 14 days.",
			body:     "The Housing Stability and Tenant Protection Act of 2019 caps security deposits at one month's rent statewide. Landlords must offer a move-in inspection, return deposits within 14 days of move-out, and provide an itemized statement for any deduction.",
		},
		{
			state:    "TX",
			category: models.CategoryDeposits,
			title:    "Security Deposit Return in Texas",
			summary:  "Texas requires deposit return within 30 days; no statutory cap applies.",
			body:     "Texas Property Code Chapter 92 sets no cap on deposit amounts but requires return within 30 days of surrender, with an itemized list of deductions. Retaliation for deposit demands exposes the landlord to treble damages.",
		},
		{
			state:    "WA",
			category: models.CategoryScreening,
			title:    "Tenant Screening Disclosures in Washington",
			summary:  "Screening criteria and costs must be disclosed in writing before charging any fee.",
			body:     "RCW 59.18.257 requires landlords to disclose screening criteria, the consumer report agencies used, and the applicant's rights before collecting a screening fee. Fees may not exceed the actual cost of the report.",
		},
	}

	cards := make([]models.ComplianceCard, 0, len(entries))
	for _, e := range entries {
		cards = append(cards, models.ComplianceCard{
			StateID:  e.state,
			Key:      service.ContentKey(string(e.category), e.title),
			Category: e.category,
			Title:    e.title,
			Summary:  e.summary,
			Body:     e.body,
			Status:   models.ContentStatusActive,
		})
	}
	return cards
}

func seedCommunicationTemplates() []models.CommunicationTemplate {
	entries := []struct {
		state   string
		kind    string
		title   string
		subject string
		body    string
	}{
		{
			state:   "CA",
			kind:    "notice",
			title:   "Rent Increase Notification",
			subject: "Notice of Rent Adjustment for {{property_address}}",
			body:    "Dear {{tenant_name}},\n\nThis letter serves as formal notice that the monthly rent for {{property_address}} will change to {{new_rent}} effective {{effective_date}}, in accordance with the notice period required by California law.\n\nSincerely,\n{{landlord_name}}",
		},
		{
			state:   "CA",
			kind:    "letter",
			title:   "Security Deposit Itemization Cover Letter",
			subject: "Security Deposit Statement for {{property_address}}",
			body:    "Dear {{tenant_name}},\n\nEnclosed is the itemized statement of deductions from your security deposit for {{property_address}}, together with a refund of {{refund_amount}}, as required within 21 days of move-out.\n\nSincerely,\n{{landlord_name}}",
		},
		{
			state:   "NY",
			kind:    "email",
			title:   "Lease Renewal Offer",
			subject: "Lease Renewal for {{property_address}}",
			body:    "Dear {{tenant_name}},\n\nYour current lease for {{property_address}} expires on {{lease_end_date}}. We would like to offer a renewal at {{new_rent}} per month. Please respond by {{response_deadline}}.\n\nBest regards,\n{{landlord_name}}",
		},
	}

	comms := make([]models.CommunicationTemplate, 0, len(entries))
	for _, e := range entries {
		comms = append(comms, models.CommunicationTemplate{
			StateID: e.state,
			Key:     service.ContentKey(e.kind, e.title),
			Kind:    e.kind,
			Title:   e.title,
			Subject: e.subject,
			Body:    e.body,
			Status:  models.ContentStatusActive,
		})
	}
	return comms
}
