package notify

import (
	"errors"
	"sync"
	"time"

	"occurrences/internal/logger"

	"github.com/google/uuid"
)

// DefaultDuration is how long a notification stays visible.
const DefaultDuration = 3 * time.Second

// ErrStaleToken is returned when a confirmation token was already resolved or overwritten.
var ErrStaleToken = errors.New("confirmation is no longer pending")

type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Warning Severity = "warning"
	Error   Severity = "error"
)

// Class is the fixed visual treatment for a severity.
func (s Severity) Class() string {
	switch s {
	case Success:
		return "bg-green-600"
	case Warning:
		return "bg-yellow-600"
	case Error:
		return "bg-red-600"
	default:
		return "bg-blue-600"
	}
}

// Notification is one transient message shown to the user.
type Notification struct {
	ID        uint64    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Class     string    `json:"class"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Prompt asks the user a yes/no question before a destructive action.
type Prompt struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Notifier is what core components use to surface feedback.
type Notifier interface {
	Notify(message string, severity Severity)
}

// Sink displays notifications and prompts. The websocket hub implements it.
type Sink interface {
	ShowNotification(n Notification)
	DismissNotification(id uint64)
	ShowConfirmation(p Prompt)
}

type pendingConfirmation struct {
	prompt Prompt
	action func()
}

// Service shows one notification at a time and holds at most one pending confirmation.
type Service struct {
	mu       sync.Mutex
	sink     Sink
	logger   *logger.Logger
	duration time.Duration

	seq     uint64
	current *Notification
	timer   *time.Timer
	pending *pendingConfirmation
}

// NewService creates a Service. A nil sink only logs.
func NewService(sink Sink, logger *logger.Logger, duration time.Duration) *Service {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Service{sink: sink, logger: logger, duration: duration}
}

// Notify replaces the visible notification and schedules its dismissal.
func (s *Service) Notify(message string, severity Severity) {
	s.mu.Lock()
	s.seq++
	n := Notification{
		ID:        s.seq,
		Message:   message,
		Severity:  severity,
		Class:     severity.Class(),
		ExpiresAt: time.Now().Add(s.duration),
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.current = &n
	id := n.ID
	s.timer = time.AfterFunc(s.duration, func() { s.dismiss(id) })
	s.mu.Unlock()

	s.log(message, severity)
	if s.sink != nil {
		s.sink.ShowNotification(n)
	}
}

// dismiss hides notification id unless a newer one already replaced it.
func (s *Service) dismiss(id uint64) {
	s.mu.Lock()
	if s.current == nil || s.current.ID != id {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.timer = nil
	s.mu.Unlock()

	if s.sink != nil {
		s.sink.DismissNotification(id)
	}
}

// Current returns the visible notification, if any.
func (s *Service) Current() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Notification{}, false
	}
	return *s.current, true
}

// Confirm asks the user to approve action and returns the token that resolves it.
// A new call replaces any unresolved confirmation; its token becomes stale.
func (s *Service) Confirm(message string, action func()) Prompt {
	p := Prompt{Token: uuid.NewString(), Message: message}

	s.mu.Lock()
	s.pending = &pendingConfirmation{prompt: p, action: action}
	s.mu.Unlock()

	if s.sink != nil {
		s.sink.ShowConfirmation(p)
	}
	return p
}

// Resolve answers the pending confirmation. The action runs only when accepted
// and only if token still identifies the pending confirmation.
func (s *Service) Resolve(token string, accepted bool) error {
	s.mu.Lock()
	if s.pending == nil || s.pending.prompt.Token != token {
		s.mu.Unlock()
		return ErrStaleToken
	}
	action := s.pending.action
	s.pending = nil
	s.mu.Unlock()

	if accepted && action != nil {
		action()
	}
	return nil
}

// Pending returns the unresolved confirmation prompt, if any.
func (s *Service) Pending() (Prompt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Prompt{}, false
	}
	return s.pending.prompt, true
}

func (s *Service) log(message string, severity Severity) {
	if s.logger == nil {
		return
	}
	switch severity {
	case Warning:
		s.logger.Warning("%s", message)
	case Error:
		s.logger.Error("%s", message)
	default:
		s.logger.Info("[%s] %s", severity, message)
	}
}
