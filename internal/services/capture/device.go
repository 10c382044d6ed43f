package capture

import (
	"context"
	"errors"
)

// ErrNoDevices is reported when enumeration finds no capture device.
var ErrNoDevices = errors.New("no camera found")

// Device is one enumerated capture device.
type Device struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// DeviceManager enumerates and opens capture devices.
type DeviceManager interface {
	Devices(ctx context.Context) ([]Device, error)
	Open(ctx context.Context, id int) (Stream, error)
}

// Stream is an open device. Frame returns one JPEG encoded frame.
type Stream interface {
	Frame() ([]byte, error)
	Close() error
}
