// Package detect infers the conversation context for a customer: which
// service they are most likely interested in, what their current intent is,
// and which topics came up recently. All classification is deterministic
// keyword and substring matching over a snapshot of recent history.
package detect

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/atendezap/insight/internal/chat"
)

// historyWindow is how many recent messages are scored.
const historyWindow = 10

// minServiceScore is the acceptance floor: a service whose final aggregate
// stays below it is never reported as detected.
const minServiceScore = 5.0

// maxConfidenceScore is the score at which confidence saturates at 1.0.
const maxConfidenceScore = 30.0

// currentMessageBonus is the flat, recency-unweighted boost for an exact
// service-name mention in the in-flight message.
const currentMessageBonus = 20.0

// Signal names the heuristic that produced the winning score for a service.
type Signal string

const (
	SignalExplicitMention Signal = "explicit_mention"
	SignalPriceQuestion   Signal = "price_question"
	SignalDetailsQuestion Signal = "details_question"
	SignalComparison      Signal = "comparison"
)

// Intent classifies what the customer is trying to do right now.
type Intent string

const (
	IntentScheduling  Intent = "scheduling"
	IntentInformation Intent = "information"
	IntentPricing     Intent = "pricing"
	IntentComparison  Intent = "comparison"
	IntentUnknown     Intent = "unknown"
)

// ServiceContext is the detected service of interest, ready for prompt
// injection. Confidence is always within [0,1].
type ServiceContext struct {
	ServiceID       uuid.UUID `json:"service_id"`
	ServiceName     string    `json:"service_name"`
	Price           string    `json:"price"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	Confidence      float64   `json:"confidence"`
	DetectedFrom    Signal    `json:"detected_from"`
}

// Result is the full output of one detection pass.
type Result struct {
	DetectedService *ServiceContext `json:"detected_service,omitempty"`
	RecentTopics    []string        `json:"recent_topics,omitempty"`
	CustomerIntent  Intent          `json:"customer_intent"`
}

// Reader is the read-only slice of the store the detector needs.
type Reader interface {
	GetRecentMessages(ctx context.Context, customerID uuid.UUID, limit int) ([]chat.Message, error)
	GetActiveServices(ctx context.Context, companyID uuid.UUID) ([]chat.Service, error)
}

// Detector scores the service catalog against recent conversation history.
// Stateless; safe for concurrent use.
type Detector struct {
	reader Reader
	logger *slog.Logger
}

func New(reader Reader, logger *slog.Logger) *Detector {
	return &Detector{reader: reader, logger: logger}
}

// DetectContext computes the conversation context for a customer from the
// last messages and the in-flight message. Absence of any qualifying
// service yields a nil DetectedService, never an error; store failures
// propagate unchanged.
func (d *Detector) DetectContext(ctx context.Context, customerID, companyID uuid.UUID, currentMessage string) (*Result, error) {
	recent, err := d.reader.GetRecentMessages(ctx, customerID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("fetch recent messages: %w", err)
	}
	// The store returns most-recent-first; scoring walks chronologically.
	msgs := make([]chat.Message, len(recent))
	for i, m := range recent {
		msgs[len(recent)-1-i] = m
	}

	services, err := d.reader.GetActiveServices(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("fetch active services: %w", err)
	}

	result := &Result{
		CustomerIntent: classifyIntent(currentMessage),
		RecentTopics:   extractTopics(msgs, services),
	}

	if len(services) == 0 {
		return result, nil
	}

	// Per-service aggregates, indexed by catalog position. Exact ties on
	// the final score resolve to the earlier catalog entry.
	scores := make([]float64, len(services))
	signals := make([]Signal, len(services))
	for i := range signals {
		signals[i] = SignalExplicitMention
	}

	for i, msg := range msgs {
		weight := float64(i+1) / float64(len(msgs))
		content := strings.ToLower(msg.Content)

		for si, svc := range services {
			raw, signal := scoreMessage(content, msg.Direction, svc)
			if raw <= 0 {
				continue
			}
			weighted := raw * weight
			// The signal updates only when this message alone outweighs
			// everything accumulated so far for the service.
			if weighted > scores[si] {
				signals[si] = signal
			}
			scores[si] += weighted
		}
	}

	// An exact name mention in the in-flight message is the strongest
	// signal and carries no recency discount.
	current := strings.ToLower(currentMessage)
	for si, svc := range services {
		if strings.Contains(current, strings.ToLower(svc.Name)) {
			scores[si] += currentMessageBonus
			signals[si] = SignalExplicitMention
		}
	}

	best := -1
	for si := range services {
		if scores[si] >= minServiceScore && (best < 0 || scores[si] > scores[best]) {
			best = si
		}
	}
	if best < 0 {
		return result, nil
	}

	svc := services[best]
	confidence := scores[best] / maxConfidenceScore
	if confidence > 1 {
		confidence = 1
	}
	result.DetectedService = &ServiceContext{
		ServiceID:       svc.ID,
		ServiceName:     svc.Name,
		Price:           formatPrice(svc.BasePrice),
		DurationMinutes: svc.DurationMinutes,
		Confidence:      confidence,
		DetectedFrom:    signals[best],
	}

	d.logger.Debug("context detected",
		"customer_id", customerID,
		"service", svc.Name,
		"score", scores[best],
		"signal", signals[best],
		"intent", result.CustomerIntent,
	)

	return result, nil
}

// scoreMessage computes the raw match score of one message against one
// service, plus the signal that score represents.
func scoreMessage(content string, direction chat.Direction, svc chat.Service) (float64, Signal) {
	score := 0.0
	signal := SignalExplicitMention

	name := strings.ToLower(svc.Name)
	if strings.Contains(content, name) {
		score += 10
	}
	for _, word := range strings.Fields(name) {
		if utf8.RuneCountInString(word) > 3 && strings.Contains(content, word) {
			score += 3
		}
	}
	if svc.Category != "" && strings.Contains(content, strings.ToLower(svc.Category)) {
		score += 2
	}

	if direction == chat.DirectionInbound && score > 0 && containsAny(content, interestKeywords) {
		score *= 2
		switch {
		case containsAny(content, priceSignalTerms):
			signal = SignalPriceQuestion
		case containsAny(content, detailSignalTerms):
			signal = SignalDetailsQuestion
		}
	}

	return score, signal
}

// classifyIntent checks the fixed keyword lists in priority order; the
// first hit wins.
func classifyIntent(message string) Intent {
	m := strings.ToLower(message)
	switch {
	case containsAny(m, schedulingKeywords):
		return IntentScheduling
	case containsAny(m, pricingKeywords):
		return IntentPricing
	case containsAny(m, informationKeywords):
		return IntentInformation
	case containsAny(m, comparisonKeywords):
		return IntentComparison
	default:
		return IntentUnknown
	}
}

// extractTopics collects service names (and matched categories) mentioned
// in inbound messages, in order of first appearance, without duplicates.
func extractTopics(msgs []chat.Message, services []chat.Service) []string {
	var topics []string
	seen := make(map[string]bool)
	add := func(topic string) {
		if !seen[topic] {
			seen[topic] = true
			topics = append(topics, topic)
		}
	}

	for _, msg := range msgs {
		if msg.Direction != chat.DirectionInbound {
			continue
		}
		content := strings.ToLower(msg.Content)
		for _, svc := range services {
			nameHit := strings.Contains(content, strings.ToLower(svc.Name))
			categoryHit := svc.Category != "" && strings.Contains(content, strings.ToLower(svc.Category))
			if nameHit || categoryHit {
				add(svc.Name)
			}
			if categoryHit {
				add(svc.Category)
			}
		}
	}

	return topics
}

// formatPrice renders a price in Brazilian convention: comma decimal
// separator, two places.
func formatPrice(price float64) string {
	return strings.Replace(fmt.Sprintf("%.2f", price), ".", ",", 1)
}
