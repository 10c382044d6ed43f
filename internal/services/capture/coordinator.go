// Package capture drives a single in-progress capture from image acquisition
// to a finished record.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"occurrences/internal/logger"
	"occurrences/internal/model"
	"occurrences/internal/services/geo"
	"occurrences/internal/services/imaging"
	"occurrences/internal/services/notify"
)

// DefaultGeolocationTimeout bounds how long Finalize waits for a position.
const DefaultGeolocationTimeout = 10 * time.Second

type State string

const (
	StateIdle     State = "idle"
	StateCaptured State = "captured"
)

// RecordSink receives every record the coordinator creates.
type RecordSink interface {
	Add(ctx context.Context, record model.Record) error
}

// IDSource hands out unique record ids.
type IDSource interface {
	NextID(now time.Time) int64
}

// FinalizeRequest is everything needed to build a record.
type FinalizeRequest struct {
	Image    string
	Comment  string
	Category string
	Priority string
	Locator  geo.Provider
}

// Snapshot is the coordinator state exposed to the presentation layer.
type Snapshot struct {
	State     State    `json:"state"`
	Preview   string   `json:"preview,omitempty"`
	Devices   []Device `json:"devices"`
	Current   *Device  `json:"current,omitempty"`
	CanSwitch bool     `json:"canSwitch"`
}

type Options struct {
	GeolocationTimeout time.Duration
	Imaging            imaging.Options
	Locator            geo.Provider
	Now                func() time.Time
}

type Coordinator struct {
	mu       sync.Mutex
	devices  DeviceManager
	sink     RecordSink
	ids      IDSource
	notifier notify.Notifier
	logger   *logger.Logger
	opts     Options

	cameras []Device
	index   int
	stream  Stream
	state   State
	pending string
}

func NewCoordinator(devices DeviceManager, sink RecordSink, ids IDSource, notifier notify.Notifier, logger *logger.Logger, opts Options) *Coordinator {
	if opts.GeolocationTimeout <= 0 {
		opts.GeolocationTimeout = DefaultGeolocationTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Coordinator{
		devices:  devices,
		sink:     sink,
		ids:      ids,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
		state:    StateIdle,
	}
}

// Start enumerates the capture devices and opens the first one.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.devices == nil {
		return c.deviceFailure("Error initializing camera: ", notify.Warning, ErrNoDevices)
	}

	cameras, err := c.devices.Devices(ctx)
	if err != nil {
		return c.deviceFailure("Error initializing camera: ", notify.Error, err)
	}
	c.cameras = cameras
	c.index = 0

	if len(cameras) == 0 {
		c.notifier.Notify("No camera found", notify.Warning)
		return &model.DeviceError{Device: "camera", Err: ErrNoDevices}
	}

	return c.openLocked(ctx)
}

// SwitchDevice stops the current stream and opens the next device. It does
// nothing with fewer than two devices.
func (c *Coordinator) SwitchDevice(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cameras) <= 1 {
		return nil
	}
	c.index = (c.index + 1) % len(c.cameras)
	return c.openLocked(ctx)
}

// CanSwitch reports whether more than one device is available.
func (c *Coordinator) CanSwitch() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cameras) > 1
}

// Stop closes the active stream.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

// CaptureFrame grabs one frame from the live device and holds it as the pending image.
func (c *Coordinator) CaptureFrame(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.stream == nil {
		return "", c.deviceFailure("Error accessing camera: ", notify.Error, errors.New("no active camera"))
	}

	frame, err := c.stream.Frame()
	if err != nil {
		return "", c.deviceFailure("Error accessing camera: ", notify.Error, err)
	}

	c.pending = imaging.EncodeDataURI(frame)
	c.state = StateCaptured
	return c.pending, nil
}

// Upload decodes an image file into the pending image.
func (c *Coordinator) Upload(r io.Reader) (string, error) {
	uri, err := imaging.Decode(r, c.opts.Imaging)
	if err != nil {
		c.notifier.Notify("Invalid image: "+err.Error(), notify.Error)
		return "", &model.ValidationError{Field: "image", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = uri
	c.state = StateCaptured
	return uri, nil
}

// Cancel discards the pending image.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = ""
	c.state = StateIdle
}

func (c *Coordinator) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:     c.state,
		Preview:   c.pending,
		Devices:   append([]Device(nil), c.cameras...),
		CanSwitch: len(c.cameras) > 1,
	}
	if c.stream != nil && c.index < len(c.cameras) {
		d := c.cameras[c.index]
		s.Current = &d
	}
	return s
}

// Confirm finalizes the pending image. Once a record was handed to the sink the
// coordinator returns to Idle, even when persisting it failed; on a validation
// failure the pending image is kept.
func (c *Coordinator) Confirm(ctx context.Context, comment, category, priority string, locator geo.Provider) (model.Record, error) {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()

	record, err := c.Finalize(ctx, FinalizeRequest{
		Image:    pending,
		Comment:  comment,
		Category: category,
		Priority: priority,
		Locator:  locator,
	})
	if !emitted(err) {
		return record, err
	}

	c.mu.Lock()
	if c.pending == pending {
		c.pending = ""
		c.state = StateIdle
	}
	c.mu.Unlock()

	return record, err
}

// Finalize validates the input, assigns an id, waits a bounded time for a
// position and hands exactly one record to the sink. A missing position
// degrades to a record without coordinates.
func (c *Coordinator) Finalize(ctx context.Context, req FinalizeRequest) (model.Record, error) {
	record, err := c.validate(req)
	if err != nil {
		return model.Record{}, err
	}

	now := c.opts.Now()
	record.ID = c.ids.NextID(now)
	record.Timestamp = model.FormatTimestamp(record.ID)

	locator := req.Locator
	if locator == nil {
		locator = c.opts.Locator
	}

	pos, geoErr := geo.Acquire(ctx, locator, c.opts.GeolocationTimeout, geo.Options{HighAccuracy: true})
	if geoErr == nil {
		record.SetLocation(pos)
	} else {
		c.logger.Warning("Occurrence %d saved without location: %v", record.ID, geoErr)
		c.notifier.Notify("Occurrence registered without location: "+geoErr.Error(), notify.Warning)
	}

	if err := c.sink.Add(ctx, record); err != nil {
		c.logger.Error("Failed to add occurrence %d: %v", record.ID, err)
		return record, err
	}

	if geoErr == nil {
		c.notifier.Notify("Occurrence registered successfully!", notify.Success)
	}

	return record, nil
}

// emitted reports whether a Finalize error still left the record in the sink.
// A failed write keeps the record in memory, so the capture is done.
func emitted(err error) bool {
	var persistence *model.PersistenceError
	return err == nil || errors.As(err, &persistence)
}

func (c *Coordinator) validate(req FinalizeRequest) (model.Record, error) {
	if req.Image == "" {
		c.notifier.Notify("No image captured", notify.Error)
		return model.Record{}, &model.ValidationError{Field: "image", Err: model.ErrNoImage}
	}

	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		c.notifier.Notify("Please add a description", notify.Warning)
		return model.Record{}, &model.ValidationError{Field: "comment", Err: model.ErrEmptyComment}
	}

	category, ok := model.ParseCategory(req.Category)
	if !ok {
		c.notifier.Notify("Please select a valid category", notify.Warning)
		return model.Record{}, &model.ValidationError{Field: "category", Err: fmt.Errorf("unknown category %q", req.Category)}
	}

	priority, ok := model.ParsePriority(req.Priority)
	if !ok {
		c.notifier.Notify("Please select a valid priority", notify.Warning)
		return model.Record{}, &model.ValidationError{Field: "priority", Err: fmt.Errorf("unknown priority %q", req.Priority)}
	}

	return model.Record{
		Image:    req.Image,
		Comment:  comment,
		Status:   model.StatusUnresolved,
		Category: category,
		Priority: priority,
	}, nil
}

func (c *Coordinator) openLocked(ctx context.Context) error {
	c.closeLocked()

	device := c.cameras[c.index]
	stream, err := c.devices.Open(ctx, device.ID)
	if err != nil {
		return c.deviceFailure("Error accessing camera: ", notify.Error, err)
	}
	c.stream = stream
	c.logger.Info("Using %s", device.Label)
	return nil
}

func (c *Coordinator) closeLocked() {
	if c.stream == nil {
		return
	}
	if err := c.stream.Close(); err != nil {
		c.logger.Warning("Failed to close camera stream: %v", err)
	}
	c.stream = nil
}

func (c *Coordinator) deviceFailure(prefix string, severity notify.Severity, err error) error {
	c.notifier.Notify(prefix+err.Error(), severity)
	return &model.DeviceError{Device: "camera", Err: err}
}
