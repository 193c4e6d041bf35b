// Package audit publishes transition events to downstream consumers. The
// workflow engine emits one event per applied state transition or ledger
// mutation; the broadcast lambda and reporting pipelines consume them.
package audit

import (
	"context"

	"github.com/novachain/admin-settlement/pkg/models"
)

// Publisher delivers transition events to an external channel.
type Publisher interface {
	// PublishTransition delivers a single event. Delivery failures must not
	// roll back the settlement that produced the event.
	PublishTransition(ctx context.Context, event *models.TransitionEvent) error
}

// NoOpPublisher discards events. Used in tests and local runs without a
// configured queue.
type NoOpPublisher struct{}

func (NoOpPublisher) PublishTransition(ctx context.Context, event *models.TransitionEvent) error {
	return nil
}
