package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type TaskType string

const (
	TaskTypeBookingConfirmed TaskType = "booking_confirmed"
	TaskTypeEventUpdated     TaskType = "event_updated"
)

// Task is a unit of work in the queue. Payload is kept opaque.
type Task struct {
	ID         string          `json:"id"`
	Type       TaskType        `json:"type"`
	Key        string          `json:"key,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	ExecuteAt  time.Time       `json:"execute_at"`
	CreatedAt  time.Time       `json:"created_at"`
	Attempts   int             `json:"attempts"`
	MaxRetries int             `json:"max_retries"`
}

func (t *Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("task ID is required")
	}
	if strings.TrimSpace(string(t.Type)) == "" {
		return fmt.Errorf("task type is required")
	}
	if len(t.Payload) == 0 {
		t.Payload = json.RawMessage("{}")
	}
	return nil
}

// permanentError marks a handler failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the queue sends the task straight to the DLQ.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}
