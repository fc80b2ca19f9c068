package services

import "github.com/google/uuid"

// EventPublisher receives mutation events for a project room. Publish must
// not block on delivery and never reports failure to the caller.
type EventPublisher interface {
	Publish(projectID uuid.UUID, event string, payload any)
}

type NopPublisher struct{}

func (NopPublisher) Publish(uuid.UUID, string, any) {}

// Publishers fans a single event out to several publishers in order.
type Publishers []EventPublisher

func (ps Publishers) Publish(projectID uuid.UUID, event string, payload any) {
	for _, p := range ps {
		if p != nil {
			p.Publish(projectID, event, payload)
		}
	}
}
