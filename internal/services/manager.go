package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"occurrences/internal/dto"
	"occurrences/internal/logger"
	"occurrences/internal/model"
	"occurrences/internal/repository"
	"occurrences/internal/services/export"
	"occurrences/internal/services/filter"
	"occurrences/internal/services/markers"
	"occurrences/internal/services/notify"
	"occurrences/internal/services/queue"
	"occurrences/internal/services/stats"
	"occurrences/internal/services/store"

	geojson "github.com/paulmach/go.geojson"
)

const deletePrompt = "Are you sure you want to delete this occurrence?"

// Renderer receives every derived view after a change, always in the order
// stats, gallery, markers.
type Renderer interface {
	RenderStats(stats dto.RecordStats)
	RenderGallery(view dto.GalleryView)
	RenderMarkers(markers *geojson.FeatureCollection)
}

// Notifications is the user feedback surface the manager needs.
type Notifications interface {
	notify.Notifier
	Confirm(message string, action func()) notify.Prompt
	Resolve(token string, accepted bool) error
}

type loader interface {
	Load(ctx context.Context)
}

// Manager composes the record store, offline queue and notification service
// and keeps the rendered views consistent with the store.
type Manager struct {
	store         *store.RecordStore
	queue         queue.Queue
	notifications Notifications
	renderer      Renderer
	kv            repository.KeyValueStore
	logger        *logger.Logger

	now      func() time.Time
	location *time.Location

	mu       sync.Mutex
	criteria dto.RecordFilters
	online   bool
}

func NewManager(recordStore *store.RecordStore, offlineQueue queue.Queue, notifications Notifications, renderer Renderer, kv repository.KeyValueStore, logger *logger.Logger) *Manager {
	return &Manager{
		store:         recordStore,
		queue:         offlineQueue,
		notifications: notifications,
		renderer:      renderer,
		kv:            kv,
		logger:        logger,
		now:           time.Now,
		location:      time.Local,
		online:        true,
	}
}

// Start loads durable state, renders every view once and drains the offline queue.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	records := m.store.Load(ctx)
	if l, ok := m.queue.(loader); ok {
		l.Load(ctx)
	}
	m.refreshLocked()
	m.mu.Unlock()

	m.logger.Info("Loaded %d occurrences, %d pending sync", len(records), m.queue.Len())

	if _, err := m.Sync(ctx); err != nil {
		m.logger.Warning("Startup sync failed: %v", err)
	}
}

// ApplyFilter stores criteria as the active filter and re-renders the gallery.
func (m *Manager) ApplyFilter(criteria dto.RecordFilters) dto.GalleryView {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.criteria = criteria
	view := m.galleryLocked()
	if m.renderer != nil {
		m.renderer.RenderGallery(view)
	}
	return view
}

// Query returns the gallery for criteria without changing the active filter.
func (m *Manager) Query(criteria dto.RecordFilters) dto.GalleryView {
	visible := filter.Apply(m.store.All(), criteria, m.now().In(m.location))
	return newGalleryView(visible, criteria, m.location)
}

// Gallery returns the gallery for the active filter.
func (m *Manager) Gallery() dto.GalleryView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.galleryLocked()
}

func (m *Manager) Stats() dto.RecordStats {
	return stats.Aggregate(m.store.All())
}

func (m *Manager) Markers() *geojson.FeatureCollection {
	return markers.Build(m.store.All(), m.location)
}

// Record returns the details view of one record.
func (m *Manager) Record(id int64) (dto.RecordView, error) {
	r, ok := m.store.Get(id)
	if !ok {
		return dto.RecordView{}, model.ErrNotFound
	}
	return newRecordView(r, m.location), nil
}

// Add stores a newly captured record and refreshes every view.
func (m *Manager) Add(ctx context.Context, record model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.store.Add(ctx, record)
	m.refreshLocked()
	m.enqueueLocked(ctx, "add", record.ID)
	return err
}

// ToggleStatus flips a record between Unresolved and Resolved.
func (m *Manager) ToggleStatus(ctx context.Context, id int64) (dto.RecordView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.store.Get(id)
	if !ok {
		return dto.RecordView{}, model.ErrNotFound
	}

	r.Status = r.Status.Toggled()
	err := m.store.UpdateStatus(ctx, id, r.Status)
	m.refreshLocked()
	m.enqueueLocked(ctx, "status", id)
	return newRecordView(r, m.location), err
}

// RequestDelete asks the user to confirm deleting id. The record is only
// removed once the returned prompt is accepted.
func (m *Manager) RequestDelete(id int64) (notify.Prompt, error) {
	if _, ok := m.store.Get(id); !ok {
		return notify.Prompt{}, model.ErrNotFound
	}

	return m.notifications.Confirm(deletePrompt, func() {
		if err := m.Delete(context.Background(), id); err != nil {
			m.logger.Error("Failed to delete occurrence %d: %v", id, err)
		}
	}), nil
}

// ResolveConfirmation answers the pending prompt identified by token.
func (m *Manager) ResolveConfirmation(token string, accept bool) error {
	return m.notifications.Resolve(token, accept)
}

// Delete removes id without asking. Unknown ids are ignored.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, existed := m.store.Get(id)
	err := m.store.Delete(ctx, id)
	m.refreshLocked()
	if err != nil {
		return err
	}

	if existed {
		m.enqueueLocked(ctx, "delete", id)
		m.notifications.Notify("Occurrence deleted successfully", notify.Success)
	}
	return nil
}

// Sync drains the offline queue.
func (m *Manager) Sync(ctx context.Context) (queue.DrainResult, error) {
	return m.queue.Drain(ctx)
}

// SetOnline records a connectivity change. Going offline warns the user;
// coming back online drains the queue.
func (m *Manager) SetOnline(ctx context.Context, online bool) error {
	m.mu.Lock()
	was := m.online
	m.online = online
	m.mu.Unlock()

	if !online {
		if was {
			m.notifications.Notify("You are offline. Data will be synced when the connection is restored.", notify.Warning)
		}
		return nil
	}

	_, err := m.Sync(ctx)
	return err
}

func (m *Manager) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// ExportJSON writes every record and returns the download file name.
func (m *Manager) ExportJSON(w io.Writer) (string, error) {
	name := export.Filename(export.FormatJSON, m.now().In(m.location))
	return name, export.JSON(w, m.store.All())
}

// ExportCSV writes every record as CSV and returns the download file name.
func (m *Manager) ExportCSV(w io.Writer) (string, error) {
	name := export.Filename(export.FormatCSV, m.now().In(m.location))
	return name, export.CSV(w, m.store.All(), m.location)
}

// Preferences reads the persisted presentation settings.
func (m *Manager) Preferences(ctx context.Context) (dto.Preferences, error) {
	data, err := m.kv.Get(ctx, repository.DarkModeKey)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return dto.Preferences{}, nil
	}
	if err != nil {
		return dto.Preferences{}, &model.PersistenceError{Op: "read", Key: repository.DarkModeKey, Err: err}
	}
	dark, _ := strconv.ParseBool(string(data))
	return dto.Preferences{DarkMode: dark}, nil
}

func (m *Manager) SetPreferences(ctx context.Context, p dto.Preferences) error {
	if err := m.kv.Put(ctx, repository.DarkModeKey, []byte(strconv.FormatBool(p.DarkMode))); err != nil {
		err = &model.PersistenceError{Op: "write", Key: repository.DarkModeKey, Err: err}
		m.logger.Error("Error saving preferences: %v", err)
		m.notifications.Notify("Failed to save data: "+err.Error(), notify.Error)
		return err
	}
	return nil
}

func (m *Manager) galleryLocked() dto.GalleryView {
	visible := filter.Apply(m.store.All(), m.criteria, m.now().In(m.location))
	return newGalleryView(visible, m.criteria, m.location)
}

// refreshLocked re-renders stats, gallery and markers in that order. It must
// run in the same critical section as the store mutation it follows.
func (m *Manager) refreshLocked() {
	if m.renderer == nil {
		return
	}
	all := m.store.All()
	m.renderer.RenderStats(stats.Aggregate(all))
	m.renderer.RenderGallery(newGalleryView(filter.Apply(all, m.criteria, m.now().In(m.location)), m.criteria, m.location))
	m.renderer.RenderMarkers(markers.Build(all, m.location))
}

// enqueueLocked records a mutation made while offline so the next sync sees it.
func (m *Manager) enqueueLocked(ctx context.Context, op string, id int64) {
	if m.online {
		return
	}
	payload, err := json.Marshal(struct {
		Op string `json:"op"`
		ID int64  `json:"id"`
	}{op, id})
	if err != nil {
		return
	}
	if err := m.queue.Enqueue(ctx, queue.Entry{Payload: payload}); err != nil {
		m.logger.Warning("Failed to queue %s of %d: %v", op, id, err)
	}
}

// String describes the manager state for logs.
func (m *Manager) String() string {
	return fmt.Sprintf("occurrences=%d pending=%d online=%t", m.store.Len(), m.queue.Len(), m.Online())
}
