// Package notify tells a supervisor about containers completed with discrepancies.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"WarehouseApp/internal/model"
)

// Notifier is best-effort: callers log its error and carry on.
type Notifier interface {
	NotifyDiscrepancies(ctx context.Context, c model.Container) error
}

// DiscrepancyEvent: полезная нагрузка уведомления.
type DiscrepancyEvent struct {
	EventID         string              `json:"eventId"`
	ContainerID     string              `json:"containerId"`
	ContainerNumber string              `json:"containerNumber"`
	Type            model.ContainerType `json:"type"`
	DoorNumber      string              `json:"doorNumber,omitempty"`
	ShareableLink   string              `json:"shareableLink,omitempty"`
	CompletedAt     *time.Time          `json:"completedAt,omitempty"`
	AdminEmail      string              `json:"adminEmail,omitempty"`
	Discrepancies   []model.Discrepancy `json:"discrepancies"`
}

// NewEvent builds the event for c with a fresh id.
func NewEvent(c model.Container, adminEmail string) DiscrepancyEvent {
	return DiscrepancyEvent{
		EventID:         uuid.NewString(),
		ContainerID:     c.ID,
		ContainerNumber: c.ContainerNumber,
		Type:            c.Type,
		DoorNumber:      c.DoorNumber,
		ShareableLink:   c.ShareableLink,
		CompletedAt:     c.CompletedAt,
		AdminEmail:      adminEmail,
		Discrepancies:   c.Discrepancies,
	}
}

// LogNotifier только пишет событие в журнал.
type LogNotifier struct {
	Logger     *zap.SugaredLogger
	AdminEmail string
}

// NotifyDiscrepancies logs the event.
func (n LogNotifier) NotifyDiscrepancies(_ context.Context, c model.Container) error {
	ev := NewEvent(c, n.AdminEmail)
	descs := make([]string, 0, len(ev.Discrepancies))
	for _, d := range ev.Discrepancies {
		descs = append(descs, d.Description)
	}
	n.Logger.Infow("discrepancy notification",
		"event_id", ev.EventID,
		"container", ev.ContainerNumber,
		"admin_email", ev.AdminEmail,
		"link", ev.ShareableLink,
		"discrepancies", descs,
	)
	return nil
}
