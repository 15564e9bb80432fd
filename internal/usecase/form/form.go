// Package form implements the create-user and create-order forms.
package form

import (
	"sync"

	"go.uber.org/zap"

	"user-order-console/internal/ui/notify"
	apperrors "user-order-console/pkg/errors"
)

// UnexpectedError is shown when a create call fails without a structured
// API error.
const UnexpectedError = "Unexpected error"

// Deps are the collaborators shared by both forms.
type Deps struct {
	Notifier notify.Notifier
	Bus      *notify.Bus // optional; receives a refresh event after each create
	Log      *zap.Logger
	// OnCreated is called after a successful create.
	OnCreated func()
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return d
}

// status is the submission state common to both forms.
type status struct {
	mu         sync.Mutex
	submitting bool
	err        string
}

// Submitting reports whether a create call is in flight.
func (s *status) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// Err returns the message of the last failed submission, or "".
func (s *status) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *status) begin() {
	s.mu.Lock()
	s.submitting = true
	s.err = ""
	s.mu.Unlock()
}

func (s *status) end() {
	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()
}

// fail records and reports the user-facing message for err.
func (s *status) fail(deps Deps, err error, fallback string) {
	msg := apperrors.UserMessage(err, fallback)
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
	if deps.Notifier != nil {
		deps.Notifier.Error(msg)
	}
}

// succeed runs the post-create steps: callback, refresh event, notification.
func (s *status) succeed(deps Deps, topic notify.Topic, msg string) {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()

	if deps.OnCreated != nil {
		deps.OnCreated()
	}
	deps.Bus.Publish(topic)
	if deps.Notifier != nil {
		deps.Notifier.Success(msg)
	}
}
