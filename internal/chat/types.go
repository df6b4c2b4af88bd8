package chat

import (
	"time"

	"github.com/google/uuid"
)

// Direction tells whether a message came from the customer or went out to them.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// SenderType identifies who authored an outbound message.
// Empty for inbound messages.
type SenderType string

const (
	SenderHuman SenderType = "human"
	SenderAI    SenderType = "ai"
)

// Feedback is a human quality rating applied to an AI message.
// Empty means unrated.
type Feedback string

const (
	FeedbackGood Feedback = "good"
	FeedbackBad  Feedback = "bad"
)

// Message is one chat turn. Owned and mutated by the external store;
// the engine only reads it, except for the feedback write path.
type Message struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	CompanyID    uuid.UUID
	Content      string
	Direction    Direction
	SenderType   SenderType
	Feedback     Feedback
	FeedbackNote string
	Timestamp    time.Time
}

// Service is a sellable service from the company catalog. Read-only here.
type Service struct {
	ID              uuid.UUID
	CompanyID       uuid.UUID
	Name            string
	Category        string
	BasePrice       float64
	DurationMinutes int
	IsActive        bool
}

// CampaignClick records that a campaign message was delivered to a customer.
// The attribution path matches fresh inbound messages against TemplateText
// to credit the campaign; a converted click never re-enters matching.
type CampaignClick struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	CampaignID   uuid.UUID
	TemplateText string
	Tag          string
	SentAt       time.Time
	ConvertedAt  *time.Time
}
