package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"occurrences/internal/app"
	"occurrences/internal/config"
	"occurrences/internal/logger"
	"occurrences/internal/model"
	"occurrences/internal/repository"
	"occurrences/internal/services/notify"
	"occurrences/internal/services/stats"
	"occurrences/internal/services/store"
)

// migrate imports a JSON export (as downloaded from /api/export/json) into
// the configured storage backend. Records whose id already exists are kept.
func main() {
	input := flag.String("input", "", "JSON export to import")
	flag.Parse()

	if *input == "" {
		log.Fatalf("Usage: migrate -input occurrences_YYYY-MM-DD.json")
	}

	cfg := config.Load()
	fmt.Printf("Importing %s into %s storage\n", *input, cfg.StorageBackend)

	data, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("Failed to read export: %v", err)
	}

	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		log.Fatalf("Failed to parse export: %v", err)
	}

	ctx := context.Background()
	kv, err := app.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer kv.Close()

	valid, skipped := validRecords(records)
	if len(valid) == 0 {
		fmt.Println("No occurrences found to import")
		return
	}

	s, added, err := importRecords(ctx, kv, valid)
	if err != nil {
		log.Fatalf("Failed to import occurrences: %v", err)
	}

	fmt.Printf("✅ Successfully imported %d occurrences\n", added)
	if dup := len(valid) - added; dup > 0 {
		fmt.Printf("⚠️  %d already present\n", dup)
	}
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d entries (invalid format)\n", skipped)
	}

	summary := stats.Aggregate(s.All())
	fmt.Printf("\n📊 Store Statistics:\n")
	fmt.Printf("   Total: %d\n", summary.Total)
	fmt.Printf("   Resolved: %d\n", summary.Resolved)
	fmt.Printf("   Pending: %d\n", summary.Pending)
	fmt.Printf("   Urgent: %d\n", summary.Urgent)
	for _, c := range stats.Visible(summary) {
		fmt.Printf("      - %s: %d (%d%% resolved)\n", c.Label, c.Count, c.Percent)
	}
}

// validRecords drops entries that could not have been produced by the service.
func validRecords(records []model.Record) ([]model.Record, int) {
	var valid []model.Record
	skipped := 0
	for _, r := range records {
		if r.ID <= 0 || r.Image == "" || !r.Status.Valid() || !r.Category.Valid() || !r.Priority.Valid() {
			log.Printf("⚠️  Skipping occurrence %d: incomplete or unknown values", r.ID)
			skipped++
			continue
		}
		if r.Timestamp == "" {
			r.Timestamp = model.FormatTimestamp(r.ID)
		}
		valid = append(valid, r)
	}
	return valid, skipped
}

// importRecords merges records into the stored list. It refuses to write when
// the existing list cannot be read, since the import would replace it.
func importRecords(ctx context.Context, kv repository.KeyValueStore, records []model.Record) (*store.RecordStore, int, error) {
	s := store.NewRecordStore(kv, &notify.Recorder{}, logger.NewNop())
	if err := s.LoadStrict(ctx); err != nil {
		return nil, 0, fmt.Errorf("existing occurrences could not be read, nothing imported: %w", err)
	}

	added, err := s.Import(ctx, records)
	if err != nil {
		return nil, 0, err
	}
	return s, added, nil
}
