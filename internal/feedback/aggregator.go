// Package feedback turns human quality ratings on AI replies into
// approval statistics, paired good/bad examples and plain-language
// insights for prompt injection.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atendezap/insight/internal/chat"
)

// DefaultSampleLimit caps how many rated replies are sampled per rating.
const DefaultSampleLimit = 10

// recentWindow bounds GetCustomerFeedbackHistory's "recent" count.
const recentWindow = 7 * 24 * time.Hour

// Order selects how a rated-message sample is sorted by the store.
type Order string

const (
	// OrderNotesFirst puts messages carrying a non-empty note ahead of
	// the rest, then recency descending. Used for BAD samples, since a
	// note is the highest-value part of a negative rating.
	OrderNotesFirst Order = "notes_first"
	// OrderRecent is plain recency descending.
	OrderRecent Order = "recent"
)

// Example pairs one rated AI reply with the customer message that
// provoked it.
type Example struct {
	CustomerMessage string        `json:"customer_message"`
	AIResponse      string        `json:"ai_response"`
	Feedback        chat.Feedback `json:"feedback"`
	Note            string        `json:"note,omitempty"`
}

// FeedbackContext is the aggregated learning snapshot for a company.
// Totals are exact all-time counts, independent of the bounded samples.
type FeedbackContext struct {
	GoodExamples     []Example `json:"good_examples"`
	BadExamples      []Example `json:"bad_examples"`
	TotalGood        int       `json:"total_good"`
	TotalBad         int       `json:"total_bad"`
	LearningInsights []string  `json:"learning_insights"`
}

// CustomerHistory summarizes a single customer's recent negative ratings.
type CustomerHistory struct {
	RecentBadFeedbacks int    `json:"recent_bad_feedbacks"`
	LastFeedbackNote   string `json:"last_feedback_note,omitempty"`
}

// Reader is the read slice of the store the aggregator needs.
type Reader interface {
	GetAIMessagesByFeedback(ctx context.Context, companyID uuid.UUID, fb chat.Feedback, limit int, order Order) ([]chat.Message, error)
	CountMessagesByFeedback(ctx context.Context, companyID uuid.UUID, fb chat.Feedback) (int, error)
	GetPrecedingInboundMessage(ctx context.Context, customerID uuid.UUID, before time.Time) (*chat.Message, error)
	GetCustomerAIMessagesByFeedback(ctx context.Context, customerID uuid.UUID, fb chat.Feedback) ([]chat.Message, error)
}

// Aggregator recomputes feedback context from scratch on every call;
// nothing is cached or persisted. Stateless and safe for concurrent use.
type Aggregator struct {
	reader Reader
	logger *slog.Logger
}

func New(reader Reader, logger *slog.Logger) *Aggregator {
	return &Aggregator{reader: reader, logger: logger}
}

// GetFeedbackContext collects rated AI replies for a company, pairs each
// with the inbound message that preceded it and derives recurring-complaint
// insights from the BAD notes.
func (a *Aggregator) GetFeedbackContext(ctx context.Context, companyID uuid.UUID, limit int) (*FeedbackContext, error) {
	if limit <= 0 {
		limit = DefaultSampleLimit
	}

	bad, err := a.reader.GetAIMessagesByFeedback(ctx, companyID, chat.FeedbackBad, limit, OrderNotesFirst)
	if err != nil {
		return nil, fmt.Errorf("fetch bad feedback sample: %w", err)
	}
	good, err := a.reader.GetAIMessagesByFeedback(ctx, companyID, chat.FeedbackGood, limit, OrderRecent)
	if err != nil {
		return nil, fmt.Errorf("fetch good feedback sample: %w", err)
	}

	fc := &FeedbackContext{}
	if fc.BadExamples, err = a.pairExamples(ctx, bad); err != nil {
		return nil, err
	}
	if fc.GoodExamples, err = a.pairExamples(ctx, good); err != nil {
		return nil, err
	}

	fc.TotalGood, err = a.reader.CountMessagesByFeedback(ctx, companyID, chat.FeedbackGood)
	if err != nil {
		return nil, fmt.Errorf("count good feedback: %w", err)
	}
	fc.TotalBad, err = a.reader.CountMessagesByFeedback(ctx, companyID, chat.FeedbackBad)
	if err != nil {
		return nil, fmt.Errorf("count bad feedback: %w", err)
	}

	fc.LearningInsights = deriveInsights(fc.BadExamples)

	a.logger.Debug("feedback context built",
		"company_id", companyID,
		"bad_examples", len(fc.BadExamples),
		"good_examples", len(fc.GoodExamples),
		"insights", len(fc.LearningInsights),
	)

	return fc, nil
}

// pairExamples matches each AI reply with the nearest strictly-earlier
// inbound message from the same customer. A reply with no such message
// is dropped without error.
func (a *Aggregator) pairExamples(ctx context.Context, msgs []chat.Message) ([]Example, error) {
	var examples []Example
	for _, msg := range msgs {
		prev, err := a.reader.GetPrecedingInboundMessage(ctx, msg.CustomerID, msg.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("pair feedback example: %w", err)
		}
		if prev == nil {
			continue
		}
		examples = append(examples, Example{
			CustomerMessage: prev.Content,
			AIResponse:      msg.Content,
			Feedback:        msg.Feedback,
			Note:            msg.FeedbackNote,
		})
	}
	return examples, nil
}

// GetCustomerFeedbackHistory reports how many of the customer's AI replies
// were rated BAD within the trailing seven days, plus the most recent
// non-empty note.
func (a *Aggregator) GetCustomerFeedbackHistory(ctx context.Context, customerID uuid.UUID) (*CustomerHistory, error) {
	msgs, err := a.reader.GetCustomerAIMessagesByFeedback(ctx, customerID, chat.FeedbackBad)
	if err != nil {
		return nil, fmt.Errorf("fetch customer bad feedback: %w", err)
	}
	return customerHistoryAt(msgs, time.Now()), nil
}

// customerHistoryAt evaluates the history against an explicit clock.
// msgs are expected most-recent-first.
func customerHistoryAt(msgs []chat.Message, now time.Time) *CustomerHistory {
	cutoff := now.Add(-recentWindow)
	h := &CustomerHistory{}
	for _, msg := range msgs {
		if msg.Timestamp.After(cutoff) {
			h.RecentBadFeedbacks++
		}
		if h.LastFeedbackNote == "" && msg.FeedbackNote != "" {
			h.LastFeedbackNote = msg.FeedbackNote
		}
	}
	return h
}
