// Package processor is the event pipeline around the engine: it reacts to
// inbound messages by assembling a context-enriched system prompt and
// requesting a reply, and to agent feedback by recording the rating.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/atendezap/insight/internal/chat"
	"github.com/atendezap/insight/internal/detect"
	"github.com/atendezap/insight/internal/events"
	"github.com/atendezap/insight/internal/feedback"
)

// historyForReply is how many recent messages are handed to the LLM as
// conversation history.
const historyForReply = 10

const defaultBasePrompt = "Você é um assistente de atendimento ao cliente. Responda em português, de forma cordial e objetiva, usando apenas informações confirmadas."

// ContextDetector produces the conversation-context block.
type ContextDetector interface {
	DetectContext(ctx context.Context, customerID, companyID uuid.UUID, currentMessage string) (*detect.Result, error)
}

// FeedbackAggregator produces the feedback-learning block.
type FeedbackAggregator interface {
	GetFeedbackContext(ctx context.Context, companyID uuid.UUID, limit int) (*feedback.FeedbackContext, error)
}

// Attributor runs the best-effort campaign attribution side path.
type Attributor interface {
	HandleInbound(ctx context.Context, customerID uuid.UUID, content string)
}

// MessageStore is the slice of the store the processor itself needs.
type MessageStore interface {
	GetRecentMessages(ctx context.Context, customerID uuid.UUID, limit int) ([]chat.Message, error)
	UpdateMessageFeedback(ctx context.Context, messageID uuid.UUID, fb chat.Feedback, note string) error
}

// Replier generates the assistant reply from the assembled prompt.
type Replier interface {
	Reply(ctx context.Context, systemPrompt string, history []chat.Message) (string, error)
}

// Publisher pushes events back onto the bus.
type Publisher interface {
	Publish(subject string, data any) error
}

type Processor struct {
	store       MessageStore
	detector    ContextDetector
	aggregator  FeedbackAggregator
	attributor  Attributor
	replier     Replier
	bus         Publisher
	logger      *slog.Logger
	basePrompt  string
	sampleLimit int
}

func New(store MessageStore, det ContextDetector, agg FeedbackAggregator, attr Attributor, replier Replier, bus Publisher, basePrompt string, sampleLimit int, logger *slog.Logger) *Processor {
	if basePrompt == "" {
		basePrompt = defaultBasePrompt
	}
	if sampleLimit <= 0 {
		sampleLimit = feedback.DefaultSampleLimit
	}
	return &Processor{
		store:       store,
		detector:    det,
		aggregator:  agg,
		attributor:  attr,
		replier:     replier,
		bus:         bus,
		logger:      logger,
		basePrompt:  basePrompt,
		sampleLimit: sampleLimit,
	}
}

// HandleMessageReceived is the NATS handler for chat.message.received.
func (p *Processor) HandleMessageReceived(subject string, data []byte) {
	ctx := context.Background()

	var evt events.InboundMessage
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse inbound message event", "error", err)
		return
	}
	customerID, err := uuid.Parse(evt.CustomerID)
	if err != nil {
		p.logger.Error("invalid customer id", "customer_id", evt.CustomerID, "error", err)
		return
	}
	companyID, err := uuid.Parse(evt.CompanyID)
	if err != nil {
		p.logger.Error("invalid company id", "company_id", evt.CompanyID, "error", err)
		return
	}

	// Attribution runs first and never blocks the reply path on failure.
	if p.attributor != nil {
		p.attributor.HandleInbound(ctx, customerID, evt.Content)
	}

	systemPrompt, err := p.assemblePrompt(ctx, customerID, companyID, evt.Content)
	if err != nil {
		p.logger.Error("failed to assemble prompt", "customer_id", customerID, "error", err)
		return
	}

	if p.replier == nil {
		p.logger.Debug("no llm configured, skipping reply", "customer_id", customerID)
		return
	}

	recent, err := p.store.GetRecentMessages(ctx, customerID, historyForReply)
	if err != nil {
		p.logger.Error("failed to fetch reply history", "customer_id", customerID, "error", err)
		return
	}
	history := make([]chat.Message, len(recent))
	for i, m := range recent {
		history[len(recent)-1-i] = m
	}

	reply, err := p.replier.Reply(ctx, systemPrompt, history)
	if err != nil {
		p.logger.Error("reply generation failed", "customer_id", customerID, "error", err)
		return
	}

	if err := p.bus.Publish(events.SubjectReplyReady, events.ReplyReady{
		MessageID:  evt.MessageID,
		CustomerID: evt.CustomerID,
		CompanyID:  evt.CompanyID,
		Reply:      reply,
	}); err != nil {
		p.logger.Error("failed to publish reply", "customer_id", customerID, "error", err)
		return
	}

	p.logger.Info("reply published",
		"customer_id", customerID,
		"message_id", evt.MessageID,
		"reply_len", len(reply),
	)
}

// assemblePrompt runs the detector and the aggregator concurrently (their
// snapshot reads are independent) and splices both blocks into the base
// system prompt.
func (p *Processor) assemblePrompt(ctx context.Context, customerID, companyID uuid.UUID, currentMessage string) (string, error) {
	var (
		wg     sync.WaitGroup
		res    *detect.Result
		fc     *feedback.FeedbackContext
		detErr error
		fbErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		res, detErr = p.detector.DetectContext(ctx, customerID, companyID, currentMessage)
	}()
	go func() {
		defer wg.Done()
		fc, fbErr = p.aggregator.GetFeedbackContext(ctx, companyID, p.sampleLimit)
	}()
	wg.Wait()

	if detErr != nil {
		return "", fmt.Errorf("detect context: %w", detErr)
	}
	if fbErr != nil {
		return "", fmt.Errorf("feedback context: %w", fbErr)
	}

	parts := []string{p.basePrompt}
	if block := detect.FormatForPrompt(res); block != "" {
		parts = append(parts, block)
	}
	if block := feedback.FormatForPrompt(fc); block != "" {
		parts = append(parts, block)
	}
	return strings.Join(parts, "\n\n"), nil
}

// HandleFeedback is the NATS handler for chat.message.feedback.
func (p *Processor) HandleFeedback(subject string, data []byte) {
	ctx := context.Background()

	var evt events.FeedbackEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse feedback event", "error", err)
		return
	}
	messageID, err := uuid.Parse(evt.MessageID)
	if err != nil {
		p.logger.Error("invalid message id", "message_id", evt.MessageID, "error", err)
		return
	}

	fb := chat.Feedback(evt.Feedback)
	if fb != chat.FeedbackGood && fb != chat.FeedbackBad {
		p.logger.Warn("ignoring unknown feedback value", "feedback", evt.Feedback)
		return
	}

	if err := p.store.UpdateMessageFeedback(ctx, messageID, fb, evt.Note); err != nil {
		p.logger.Error("failed to record feedback", "message_id", messageID, "error", err)
		return
	}

	p.logger.Info("feedback recorded",
		"message_id", messageID,
		"feedback", fb,
		"has_note", evt.Note != "",
	)
}
