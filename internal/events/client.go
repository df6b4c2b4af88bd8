// Package events is the NATS boundary between the engine and the rest of
// the platform: the messaging gateway publishes inbound messages and agent
// feedback here, and the engine publishes ready replies back.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// SubjectMessageReceived carries inbound customer messages from the
	// chat gateway.
	SubjectMessageReceived = "chat.message.received"
	// SubjectMessageFeedback carries human ratings applied to AI replies
	// in the agent dashboard.
	SubjectMessageFeedback = "chat.message.feedback"
	// SubjectReplyReady carries generated replies back to the gateway
	// for delivery.
	SubjectReplyReady = "chat.reply.ready"
)

// InboundMessage is the payload of SubjectMessageReceived.
type InboundMessage struct {
	MessageID  string `json:"message_id"`
	CustomerID string `json:"customer_id"`
	CompanyID  string `json:"company_id"`
	Content    string `json:"content"`
}

// FeedbackEvent is the payload of SubjectMessageFeedback.
type FeedbackEvent struct {
	MessageID string `json:"message_id"`
	Feedback  string `json:"feedback"`
	Note      string `json:"note,omitempty"`
}

// ReplyReady is the payload of SubjectReplyReady.
type ReplyReady struct {
	MessageID  string `json:"message_id"`
	CustomerID string `json:"customer_id"`
	CompanyID  string `json:"company_id"`
	Reply      string `json:"reply"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
