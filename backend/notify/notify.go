// Package notify delivers the "course completed" signal raised by the
// progress reconciler.
package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"skillsync/backend/config"
)

type CompletionEvent struct {
	UserID      string
	Email       string
	Name        string
	CourseID    string
	CourseTitle string
	CompletedAt time.Time
}

type Notifier interface {
	CourseCompleted(ctx context.Context, event CompletionEvent) error
}

// New picks SendGrid when an API key is configured and falls back to logging.
func New(cfg *config.Config, logger *log.Logger) Notifier {
	if cfg.SendGridAPIKey != "" {
		return NewSendGridNotifier(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName, logger)
	}
	return NewLogNotifier(logger)
}

type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) CourseCompleted(_ context.Context, event CompletionEvent) error {
	n.logger.Printf("[NOTIFY] user %s completed course %s (%s) at %s",
		event.UserID, event.CourseID, event.CourseTitle, event.CompletedAt.Format(time.RFC3339))
	return nil
}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []CompletionEvent
}

func (r *Recorder) CourseCompleted(_ context.Context, event CompletionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []CompletionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CompletionEvent(nil), r.events...)
}
