package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/linkshot/linkshot/internal/app/model"
	"github.com/nats-io/nats.go"
)

// EventPublisher publishes profile analytics events to NATS JetStream
type EventPublisher struct {
	js nats.JetStreamContext
}

// NewEventPublisher creates a new analytics event publisher
func NewEventPublisher(js nats.JetStreamContext) *EventPublisher {
	return &EventPublisher{js: js}
}

// PublishView publishes a profile_view event
func (p *EventPublisher) PublishView(handle, ip, userAgent string) error {
	return p.publish(model.ViewEvent{
		ID:        uuid.New().String(),
		Handle:    handle,
		Kind:      model.EventProfileView,
		IP:        ip,
		UserAgent: userAgent,
		Timestamp: time.Now(),
	})
}

// PublishClick publishes a link_click event for the given slot
func (p *EventPublisher) PublishClick(handle, slot, ip, userAgent string) error {
	return p.publish(model.ViewEvent{
		ID:        uuid.New().String(),
		Handle:    handle,
		Kind:      model.EventLinkClick,
		LinkSlot:  slot,
		IP:        ip,
		UserAgent: userAgent,
		Timestamp: time.Now(),
	})
}

func (p *EventPublisher) publish(event model.ViewEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.ViewStreamSubject, data)
	return err
}
