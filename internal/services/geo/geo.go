// Package geo acquires a position for new records and computes map bounds.
package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/geo/s2"

	"occurrences/internal/model"
)

var (
	ErrUnavailable = errors.New("position unavailable")
	ErrTimeout     = errors.New("timeout expired")
)

// Options are hints passed to the provider.
type Options struct {
	HighAccuracy bool
}

// Provider returns the current position once.
type Provider interface {
	Locate(ctx context.Context, opts Options) (model.Coordinates, error)
}

// Static always reports the same configured position.
type Static struct {
	Position *model.Coordinates
}

func (s Static) Locate(ctx context.Context, _ Options) (model.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return model.Coordinates{}, err
	}
	if s.Position == nil {
		return model.Coordinates{}, ErrUnavailable
	}
	return *s.Position, nil
}

// Client carries the result the browser obtained for a single save request.
// Reason is the browser's error message when it could not get a fix.
type Client struct {
	Position *model.Coordinates
	Reason   string
}

func (c Client) Locate(ctx context.Context, _ Options) (model.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return model.Coordinates{}, err
	}
	if c.Position != nil {
		return *c.Position, nil
	}
	if c.Reason != "" {
		return model.Coordinates{}, errors.New(c.Reason)
	}
	return model.Coordinates{}, ErrUnavailable
}

// Fallback tries each provider in order and returns the first fix.
type Fallback []Provider

func (f Fallback) Locate(ctx context.Context, opts Options) (model.Coordinates, error) {
	err := ErrUnavailable
	for _, p := range f {
		if p == nil {
			continue
		}
		var c model.Coordinates
		if c, err = p.Locate(ctx, opts); err == nil {
			return c, nil
		}
	}
	return model.Coordinates{}, err
}

// Acquire asks p for a position, waiting at most timeout. A provider that
// ignores its context is abandoned once the deadline passes. The returned
// coordinates are always valid degrees.
func Acquire(ctx context.Context, p Provider, timeout time.Duration, opts Options) (model.Coordinates, error) {
	if p == nil {
		return model.Coordinates{}, ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		c   model.Coordinates
		err error
	}
	done := make(chan result, 1)
	go func() {
		c, err := p.Locate(ctx, opts)
		done <- result{c, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) {
				return model.Coordinates{}, ErrTimeout
			}
			return model.Coordinates{}, r.err
		}
		if err := Validate(r.c); err != nil {
			return model.Coordinates{}, err
		}
		return r.c, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return model.Coordinates{}, ErrTimeout
		}
		return model.Coordinates{}, ctx.Err()
	}
}

// Validate rejects coordinates outside [-90,90] x [-180,180].
func Validate(c model.Coordinates) error {
	if !s2.LatLngFromDegrees(c.Latitude, c.Longitude).IsValid() {
		return fmt.Errorf("invalid coordinates %.6f,%.6f", c.Latitude, c.Longitude)
	}
	return nil
}

// Bounds is the smallest lat/lng rectangle holding every located record.
// ok is false when no record has coordinates.
func Bounds(records []model.Record) (sw, ne model.Coordinates, ok bool) {
	rect := s2.EmptyRect()
	for i := range records {
		r := &records[i]
		if !r.HasLocation() {
			continue
		}
		rect = rect.AddPoint(s2.LatLngFromDegrees(*r.Latitude, *r.Longitude))
	}
	if rect.IsEmpty() {
		return sw, ne, false
	}

	lo, hi := rect.Lo(), rect.Hi()
	sw = model.Coordinates{Latitude: lo.Lat.Degrees(), Longitude: lo.Lng.Degrees()}
	ne = model.Coordinates{Latitude: hi.Lat.Degrees(), Longitude: hi.Lng.Degrees()}
	return sw, ne, true
}
