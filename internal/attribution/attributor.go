// Package attribution credits campaign clicks when the customer's first
// inbound message matches the campaign template they were sent. It is a
// best-effort side path: failures are logged and never abort message
// processing.
package attribution

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atendezap/insight/internal/chat"
	"github.com/atendezap/insight/internal/textmatch"
)

// DefaultWindow is how long after delivery a click stays eligible for
// conversion matching.
const DefaultWindow = 24 * time.Hour

// Store is the slice of the data layer the attributor touches.
type Store interface {
	PendingClicks(ctx context.Context, customerID uuid.UUID, window time.Duration) ([]chat.CampaignClick, error)
	MarkClickConverted(ctx context.Context, clickID uuid.UUID) error
	UpsertCustomerTag(ctx context.Context, customerID uuid.UUID, tag string) error
}

type Attributor struct {
	store  Store
	logger *slog.Logger
	window time.Duration
}

func New(store Store, logger *slog.Logger) *Attributor {
	return &Attributor{store: store, logger: logger, window: DefaultWindow}
}

// HandleInbound checks a fresh inbound message against the customer's
// pending campaign clicks. The most recent click whose recorded template
// matches the message is marked converted and its campaign tag applied.
// Both writes are idempotent; nothing here returns an error because the
// caller's message flow must continue regardless.
func (a *Attributor) HandleInbound(ctx context.Context, customerID uuid.UUID, content string) {
	clicks, err := a.store.PendingClicks(ctx, customerID, a.window)
	if err != nil {
		a.logger.Error("failed to fetch pending clicks", "customer_id", customerID, "error", err)
		return
	}

	for _, click := range clicks {
		if !textmatch.Matches(click.TemplateText, content) {
			continue
		}

		if err := a.store.MarkClickConverted(ctx, click.ID); err != nil {
			a.logger.Error("failed to mark click converted",
				"click_id", click.ID,
				"campaign_id", click.CampaignID,
				"error", err,
			)
		}
		if click.Tag != "" {
			if err := a.store.UpsertCustomerTag(ctx, customerID, click.Tag); err != nil {
				a.logger.Error("failed to apply campaign tag",
					"customer_id", customerID,
					"tag", click.Tag,
					"error", err,
				)
			}
		}

		a.logger.Info("campaign click attributed",
			"customer_id", customerID,
			"campaign_id", click.CampaignID,
			"click_id", click.ID,
		)
		return
	}
}
