package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atendezap/insight/internal/chat"
)

// PendingClicks returns the customer's unconverted campaign clicks sent
// within the window, newest first. Converted clicks never re-enter this
// query, which is what makes conversion marking idempotent end to end.
func (s *Store) PendingClicks(ctx context.Context, customerID uuid.UUID, window time.Duration) ([]chat.CampaignClick, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, customer_id, campaign_id, template_text,
		       COALESCE(tag, ''), sent_at, converted_at
		FROM campaign_clicks
		WHERE customer_id = $1
		  AND converted_at IS NULL
		  AND sent_at > now() - make_interval(secs => $2)
		ORDER BY sent_at DESC`,
		customerID, window.Seconds(),
	)
	if err != nil {
		return nil, fmt.Errorf("get pending clicks: %w", err)
	}
	defer rows.Close()

	var clicks []chat.CampaignClick
	for rows.Next() {
		var c chat.CampaignClick
		err := rows.Scan(&c.ID, &c.CustomerID, &c.CampaignID, &c.TemplateText, &c.Tag, &c.SentAt, &c.ConvertedAt)
		if err != nil {
			return nil, fmt.Errorf("scan click: %w", err)
		}
		clicks = append(clicks, c)
	}
	return clicks, rows.Err()
}

// MarkClickConverted stamps a click as converted. Guarded so that an
// already-converted click is untouched.
func (s *Store) MarkClickConverted(ctx context.Context, clickID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE campaign_clicks
		SET converted_at = now()
		WHERE id = $1 AND converted_at IS NULL`,
		clickID,
	)
	if err != nil {
		return fmt.Errorf("mark click converted: %w", err)
	}
	return nil
}

// UpsertCustomerTag attaches a tag to a customer. Re-applying an existing
// tag is a no-op.
func (s *Store) UpsertCustomerTag(ctx context.Context, customerID uuid.UUID, tag string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO customer_tags (customer_id, tag, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (customer_id, tag) DO NOTHING`,
		customerID, tag,
	)
	if err != nil {
		return fmt.Errorf("upsert customer tag: %w", err)
	}
	return nil
}
