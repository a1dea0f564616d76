package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/google/uuid"
)

func newOutboxMessage(kind entity.NotificationType, payload interface{}, now time.Time) (*entity.OutboxMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}
	return &entity.OutboxMessage{
		Key:       uuid.NewString(),
		Type:      kind,
		Payload:   data,
		CreatedAt: now,
	}, nil
}
