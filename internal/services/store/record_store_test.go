package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"occurrences/internal/logger"
	"occurrences/internal/model"
	"occurrences/internal/repository"
	"occurrences/internal/repository/memory"
	"occurrences/internal/services/notify"
)

func newTestStore(t *testing.T) (*RecordStore, *memory.KV, *notify.Recorder) {
	t.Helper()
	kv := memory.NewKV()
	rec := &notify.Recorder{}
	return NewRecordStore(kv, rec, logger.NewNop()), kv, rec
}

func testRecord(id int64, status model.Status) model.Record {
	return model.Record{
		ID:        id,
		Image:     "data:image/jpeg;base64,AAAA",
		Comment:   "pothole on 5th",
		Status:    status,
		Category:  model.CategoryInfrastructure,
		Priority:  model.PriorityHigh,
		Timestamp: model.FormatTimestamp(id),
	}
}

func TestLoad_EmptyStore(t *testing.T) {
	s, _, rec := newTestStore(t)

	records := s.Load(context.Background())

	if len(records) != 0 {
		t.Errorf("Load returned %d records, expected 0", len(records))
	}
	if len(rec.Entries()) != 0 {
		t.Errorf("Load on an empty store notified %v", rec.Entries())
	}
}

func TestLoad_CorruptBlob(t *testing.T) {
	s, kv, rec := newTestStore(t)
	kv.Put(context.Background(), repository.RecordsKey, []byte("{not json"))

	records := s.Load(context.Background())

	if len(records) != 0 {
		t.Errorf("Load returned %d records, expected empty fallback", len(records))
	}
	if rec.Count(notify.Error) != 1 {
		t.Errorf("expected one error notification, got %v", rec.Entries())
	}
}

func TestLoad_ReadFailure(t *testing.T) {
	s, kv, rec := newTestStore(t)
	kv.FailReads = errors.New("storage unavailable")

	if records := s.Load(context.Background()); len(records) != 0 {
		t.Errorf("Load returned %d records, expected 0", len(records))
	}
	if rec.Count(notify.Error) != 1 {
		t.Errorf("expected one error notification, got %v", rec.Entries())
	}
}

func TestPersistLoad_RoundTrip(t *testing.T) {
	s, kv, _ := newTestStore(t)
	ctx := context.Background()

	located := testRecord(1700000000000, model.StatusUnresolved)
	located.SetLocation(model.Coordinates{Latitude: -23.55, Longitude: -46.63})
	plain := testRecord(1700000000500, model.StatusResolved)
	plain.Category = model.CategoryTraffic
	plain.Priority = model.PriorityUrgent

	for _, r := range []model.Record{located, plain} {
		if err := s.Add(ctx, r); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	reloaded := NewRecordStore(kv, &notify.Recorder{}, logger.NewNop())
	got := reloaded.Load(ctx)

	expected := []model.Record{located, plain}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, expected)
	}
}

func TestPersist_OmitsAbsentCoordinates(t *testing.T) {
	s, kv, _ := newTestStore(t)
	s.Add(context.Background(), testRecord(5, model.StatusUnresolved))

	raw, _ := kv.Raw(repository.RecordsKey)
	if contains(string(raw), "latitude") {
		t.Errorf("blob should omit absent coordinates: %s", raw)
	}
}

func TestUpdateStatus_Idempotent(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	s.Add(ctx, testRecord(10, model.StatusUnresolved))

	s.UpdateStatus(ctx, 10, model.StatusResolved)
	once := s.All()
	s.UpdateStatus(ctx, 10, model.StatusResolved)
	twice := s.All()

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second UpdateStatus changed state: %+v vs %+v", once, twice)
	}
	if twice[0].Status != model.StatusResolved {
		t.Errorf("Status = %s, expected Resolved", twice[0].Status)
	}
}

func TestUpdateStatus_UnknownIDAndStatus(t *testing.T) {
	s, kv, _ := newTestStore(t)
	ctx := context.Background()
	s.Add(ctx, testRecord(10, model.StatusUnresolved))
	writes := kv.Writes

	if err := s.UpdateStatus(ctx, 99, model.StatusResolved); err != nil {
		t.Errorf("UpdateStatus of unknown id returned %v", err)
	}
	if kv.Writes != writes {
		t.Error("UpdateStatus of unknown id should not persist")
	}

	var ve *model.ValidationError
	if err := s.UpdateStatus(ctx, 10, "Pending"); !errors.As(err, &ve) {
		t.Errorf("UpdateStatus with bad status error = %v, expected ValidationError", err)
	}
}

func TestDelete_UnknownIDLeavesStore(t *testing.T) {
	s, _, rec := newTestStore(t)
	ctx := context.Background()
	s.Add(ctx, testRecord(1, model.StatusUnresolved))
	s.Add(ctx, testRecord(2, model.StatusResolved))
	before := s.All()

	if err := s.Delete(ctx, 12345); err != nil {
		t.Errorf("Delete(unknown) returned %v", err)
	}
	if !reflect.DeepEqual(before, s.All()) {
		t.Error("Delete(unknown) changed the collection")
	}
	if len(rec.Entries()) != 0 {
		t.Errorf("Delete(unknown) notified %v", rec.Entries())
	}
}

func TestDelete_RemovesAndPersists(t *testing.T) {
	s, kv, _ := newTestStore(t)
	ctx := context.Background()
	s.Add(ctx, testRecord(1, model.StatusUnresolved))
	s.Add(ctx, testRecord(2, model.StatusUnresolved))
	s.Add(ctx, testRecord(3, model.StatusUnresolved))

	if err := s.Delete(ctx, 2); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	reloaded := NewRecordStore(kv, &notify.Recorder{}, logger.NewNop()).Load(ctx)
	if len(reloaded) != 2 || reloaded[0].ID != 1 || reloaded[1].ID != 3 {
		t.Errorf("reloaded = %+v, expected ids [1 3]", reloaded)
	}
}

func TestPersist_WriteFailureKeepsMemory(t *testing.T) {
	s, kv, rec := newTestStore(t)
	ctx := context.Background()
	kv.FailWrites = errors.New("quota exceeded")

	err := s.Add(ctx, testRecord(1, model.StatusUnresolved))

	var pe *model.PersistenceError
	if !errors.As(err, &pe) || pe.Op != "write" {
		t.Errorf("Add error = %v, expected write PersistenceError", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, expected the in-memory record to stay", s.Len())
	}
	if rec.Count(notify.Error) != 1 {
		t.Errorf("expected one error notification, got %v", rec.Entries())
	}
	if _, ok := kv.Raw(repository.RecordsKey); ok {
		t.Error("nothing should have been written")
	}
}

func TestAll_ReturnsCopies(t *testing.T) {
	s, _, _ := newTestStore(t)
	r := testRecord(1, model.StatusUnresolved)
	r.SetLocation(model.Coordinates{Latitude: 1, Longitude: 2})
	s.Add(context.Background(), r)

	view := s.All()
	view[0].Status = model.StatusResolved
	*view[0].Latitude = 50

	got, _ := s.Get(1)
	if got.Status != model.StatusUnresolved || *got.Latitude != 1 {
		t.Errorf("store was mutated through a copy: %+v", got)
	}
}

func TestNextID_Monotonic(t *testing.T) {
	s, _, _ := newTestStore(t)
	now := time.UnixMilli(1700000000000)

	a := s.NextID(now)
	b := s.NextID(now)
	c := s.NextID(now.Add(-time.Second))

	if !(a < b && b < c) {
		t.Errorf("ids %d, %d, %d should be strictly increasing", a, b, c)
	}
	if a != now.UnixMilli() {
		t.Errorf("first id = %d, expected the capture time %d", a, now.UnixMilli())
	}
}

func TestNextID_AfterLoad(t *testing.T) {
	s, kv, _ := newTestStore(t)
	ctx := context.Background()
	s.Add(ctx, testRecord(2000, model.StatusUnresolved))

	reloaded := NewRecordStore(kv, &notify.Recorder{}, logger.NewNop())
	reloaded.Load(ctx)

	if id := reloaded.NextID(time.UnixMilli(1000)); id != 2001 {
		t.Errorf("NextID = %d, expected 2001", id)
	}
}

func TestImport_SkipsExisting(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	s.Add(ctx, testRecord(1, model.StatusUnresolved))

	added, err := s.Import(ctx, []model.Record{testRecord(1, model.StatusResolved), testRecord(2, model.StatusUnresolved)})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if added != 1 || s.Len() != 2 {
		t.Errorf("added = %d, len = %d, expected 1 and 2", added, s.Len())
	}
	if got, _ := s.Get(1); got.Status != model.StatusUnresolved {
		t.Error("Import must not overwrite an existing record")
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func TestLoadStrict_CorruptBlobIsReturned(t *testing.T) {
	s, kv, rec := newTestStore(t)
	ctx := context.Background()
	kv.Put(ctx, repository.RecordsKey, []byte("{not json"))

	err := s.LoadStrict(ctx)

	var persistence *model.PersistenceError
	if !errors.As(err, &persistence) || persistence.Op != "decode" {
		t.Fatalf("LoadStrict error = %v, expected a decode persistence error", err)
	}
	if raw, _ := kv.Raw(repository.RecordsKey); string(raw) != "{not json" {
		t.Errorf("blob changed to %q", raw)
	}
	if len(rec.Entries()) != 0 {
		t.Errorf("LoadStrict notified %v, expected the error to be returned only", rec.Entries())
	}
}

func TestLoadStrict_ReadsRecords(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	s.Load(ctx)
	s.Add(ctx, testRecord(5, model.StatusResolved))

	other := NewRecordStore(s.kv, &notify.Recorder{}, logger.NewNop())
	if err := other.LoadStrict(ctx); err != nil {
		t.Fatalf("LoadStrict failed: %v", err)
	}
	if other.Len() != 1 || other.NextID(time.UnixMilli(1)) != 6 {
		t.Errorf("len = %d, expected 1 record with lastID 5", other.Len())
	}
}
