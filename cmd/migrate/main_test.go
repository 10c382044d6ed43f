package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"occurrences/internal/model"
	"occurrences/internal/repository"
	"occurrences/internal/repository/memory"
)

func importable(id int64) model.Record {
	return model.Record{
		ID:       id,
		Image:    "data:image/jpeg;base64,AAAA",
		Comment:  "imported",
		Status:   model.StatusUnresolved,
		Category: model.CategoryOther,
		Priority: model.PriorityLow,
	}
}

func TestImportRecords_MergesWithExisting(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	existing, _ := json.Marshal([]model.Record{importable(1)})
	kv.Put(ctx, repository.RecordsKey, existing)

	s, added, err := importRecords(ctx, kv, []model.Record{importable(1), importable(2)})
	if err != nil {
		t.Fatalf("importRecords failed: %v", err)
	}
	if added != 1 || s.Len() != 2 {
		t.Errorf("added = %d, len = %d, expected 1 and 2", added, s.Len())
	}
}

func TestImportRecords_UnreadableStoreIsLeftAlone(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(kv *memory.KV)
	}{
		{"corrupt blob", func(kv *memory.KV) {
			kv.Put(ctx, repository.RecordsKey, []byte("[{broken"))
		}},
		{"read failure", func(kv *memory.KV) {
			kv.Put(ctx, repository.RecordsKey, []byte("[{broken"))
			kv.FailReads = errors.New("connection reset")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := memory.NewKV()
			tt.setup(kv)
			writes := kv.Writes

			_, _, err := importRecords(ctx, kv, []model.Record{importable(2)})

			var persistence *model.PersistenceError
			if !errors.As(err, &persistence) {
				t.Fatalf("error = %v, expected a persistence error", err)
			}
			if kv.Writes != writes {
				t.Errorf("writes = %d, expected %d", kv.Writes, writes)
			}
			if raw, _ := kv.Raw(repository.RecordsKey); string(raw) != "[{broken" {
				t.Errorf("blob overwritten with %q", raw)
			}
		})
	}
}

func TestValidRecords(t *testing.T) {
	bad := importable(3)
	bad.Category = "weather"
	noImage := importable(4)
	noImage.Image = ""

	valid, skipped := validRecords([]model.Record{importable(1), bad, noImage})

	if len(valid) != 1 || skipped != 2 {
		t.Fatalf("valid = %d, skipped = %d, expected 1 and 2", len(valid), skipped)
	}
	if valid[0].Timestamp != model.FormatTimestamp(1) {
		t.Errorf("timestamp = %q, expected it filled from the id", valid[0].Timestamp)
	}
}
