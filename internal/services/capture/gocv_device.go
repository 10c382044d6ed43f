package capture

import (
	"context"
	"fmt"
	"sync"

	"occurrences/internal/logger"

	"gocv.io/x/gocv"
)

// GocvManager exposes the configured video device indexes through OpenCV.
type GocvManager struct {
	ids     []int
	quality int
	logger  *logger.Logger
}

func NewGocvManager(ids []int, quality int, logger *logger.Logger) *GocvManager {
	return &GocvManager{ids: ids, quality: quality, logger: logger}
}

// Devices probes every configured index and returns those that open.
func (m *GocvManager) Devices(ctx context.Context) ([]Device, error) {
	devices := make([]Device, 0, len(m.ids))
	for _, id := range m.ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vc, err := gocv.OpenVideoCapture(id)
		if err != nil {
			m.logger.Warning("Camera %d not available: %v", id, err)
			continue
		}
		ok := vc.IsOpened()
		vc.Close()
		if !ok {
			m.logger.Warning("Camera %d not opened", id)
			continue
		}
		devices = append(devices, Device{ID: id, Label: fmt.Sprintf("Camera %d", id)})
	}
	return devices, nil
}

func (m *GocvManager) Open(ctx context.Context, id int) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", id, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("camera %d could not be opened", id)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, 1280)
	vc.Set(gocv.VideoCaptureFrameHeight, 720)

	m.logger.Info("Camera %d opened", id)
	return &gocvStream{id: id, vc: vc, quality: m.quality}, nil
}

type gocvStream struct {
	mu      sync.Mutex
	id      int
	vc      *gocv.VideoCapture
	quality int
}

func (s *gocvStream) Frame() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vc == nil {
		return nil, fmt.Errorf("camera %d is closed", s.id)
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := s.vc.Read(&mat); !ok || mat.Empty() {
		return nil, fmt.Errorf("failed to read frame from camera %d", s.id)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, s.quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	frame := make([]byte, len(buf.GetBytes()))
	copy(frame, buf.GetBytes())
	return frame, nil
}

func (s *gocvStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vc == nil {
		return nil
	}
	err := s.vc.Close()
	s.vc = nil
	return err
}
