package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/atendezap/insight/internal/chat"
	"github.com/atendezap/insight/internal/feedback"
)

const messageColumns = `
	id, customer_id, company_id, content, direction,
	COALESCE(sender_type, ''), COALESCE(feedback, ''),
	COALESCE(feedback_note, ''), created_at`

func scanMessage(row pgx.Row) (chat.Message, error) {
	var m chat.Message
	err := row.Scan(
		&m.ID, &m.CustomerID, &m.CompanyID, &m.Content, &m.Direction,
		&m.SenderType, &m.Feedback, &m.FeedbackNote, &m.Timestamp,
	)
	return m, err
}

func (s *Store) collectMessages(ctx context.Context, query string, args ...any) ([]chat.Message, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// GetRecentMessages returns the customer's latest messages,
// most-recent-first.
func (s *Store) GetRecentMessages(ctx context.Context, customerID uuid.UUID, limit int) ([]chat.Message, error) {
	msgs, err := s.collectMessages(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		customerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get recent messages: %w", err)
	}
	return msgs, nil
}

// GetAIMessagesByFeedback returns up to limit AI replies with the given
// rating for a company. OrderNotesFirst puts noted messages ahead of the
// rest; both orderings fall back to recency descending.
func (s *Store) GetAIMessagesByFeedback(ctx context.Context, companyID uuid.UUID, fb chat.Feedback, limit int, order feedback.Order) ([]chat.Message, error) {
	orderBy := "created_at DESC"
	if order == feedback.OrderNotesFirst {
		orderBy = "(COALESCE(feedback_note, '') <> '') DESC, created_at DESC"
	}

	msgs, err := s.collectMessages(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE company_id = $1
		  AND sender_type = 'ai'
		  AND feedback = $2
		ORDER BY `+orderBy+`
		LIMIT $3`,
		companyID, fb, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get ai messages by feedback: %w", err)
	}
	return msgs, nil
}

// CountMessagesByFeedback returns the exact all-time count of AI replies
// with the given rating, independent of any sampling limit.
func (s *Store) CountMessagesByFeedback(ctx context.Context, companyID uuid.UUID, fb chat.Feedback) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM messages
		WHERE company_id = $1 AND sender_type = 'ai' AND feedback = $2`,
		companyID, fb,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count messages by feedback: %w", err)
	}
	return count, nil
}

// GetPrecedingInboundMessage returns the customer's nearest inbound
// message strictly before the given timestamp, or nil when none exists.
func (s *Store) GetPrecedingInboundMessage(ctx context.Context, customerID uuid.UUID, before time.Time) (*chat.Message, error) {
	m, err := scanMessage(s.pool.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE customer_id = $1
		  AND direction = 'inbound'
		  AND created_at < $2
		ORDER BY created_at DESC
		LIMIT 1`,
		customerID, before,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preceding inbound message: %w", err)
	}
	return &m, nil
}

// GetCustomerAIMessagesByFeedback returns all of a customer's rated AI
// replies with the given rating, most-recent-first.
func (s *Store) GetCustomerAIMessagesByFeedback(ctx context.Context, customerID uuid.UUID, fb chat.Feedback) ([]chat.Message, error) {
	msgs, err := s.collectMessages(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE customer_id = $1 AND sender_type = 'ai' AND feedback = $2
		ORDER BY created_at DESC`,
		customerID, fb,
	)
	if err != nil {
		return nil, fmt.Errorf("get customer ai messages: %w", err)
	}
	return msgs, nil
}

// UpdateMessageFeedback applies a human rating to an AI reply.
// Re-applying the same rating is a no-op at the data level.
func (s *Store) UpdateMessageFeedback(ctx context.Context, messageID uuid.UUID, fb chat.Feedback, note string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE messages
		SET feedback = $1, feedback_note = NULLIF($2, ''), feedback_at = now()
		WHERE id = $3`,
		fb, note, messageID,
	)
	if err != nil {
		return fmt.Errorf("update message feedback: %w", err)
	}
	return nil
}
