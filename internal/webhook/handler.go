// Package webhook provides LINE webhook handling and message dispatching
// to the registered bot modules.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/opendata-tw/budget-linebot-go/internal/bot"
	"github.com/opendata-tw/budget-linebot-go/internal/logger"
	"github.com/opendata-tw/budget-linebot-go/internal/metrics"
)

// LINE API constraints
const (
	maxMessagesPerReply = 5
	maxEventsPerWebhook = 100
	minReplyTokenLength = 10
)

// Handler handles LINE webhook events
type Handler struct {
	channelSecret string
	client        *messaging_api.MessagingApiAPI
	registry      *bot.Registry
	metrics       *metrics.Metrics
	logger        *logger.Logger
	wg            sync.WaitGroup
}

// HandlerConfig holds configuration for creating a new Handler
type HandlerConfig struct {
	ChannelSecret string
	ChannelToken  string
	Registry      *bot.Registry
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
}

// NewHandler creates a new webhook handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	client, err := messaging_api.NewMessagingApiAPI(cfg.ChannelToken)
	if err != nil {
		return nil, fmt.Errorf("create messaging API client: %w", err)
	}

	return &Handler{
		channelSecret: cfg.ChannelSecret,
		client:        client,
		registry:      cfg.Registry,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
	}, nil
}

// Handle is the Gin handler for the webhook endpoint
func (h *Handler) Handle(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("Invalid webhook signature")
			h.metrics.RecordHTTPError("invalid_signature", "webhook")
			c.Status(http.StatusBadRequest)
		} else {
			h.logger.WithError(err).Error("Failed to parse webhook request")
			h.metrics.RecordHTTPError("parse_error", "webhook")
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	// LINE expects 200 before processing finishes.
	c.Status(http.StatusOK)

	if len(cb.Events) > maxEventsPerWebhook {
		h.logger.WithField("event_count", len(cb.Events)).
			Warn("Too many events in webhook batch; truncating")
		cb.Events = cb.Events[:maxEventsPerWebhook]
	}

	// Copy events so processing does not race the returned request.
	events := make([]webhook.EventInterface, len(cb.Events))
	copy(events, cb.Events)

	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Error("Panic in async event processing")
			}
		}()

		ctx := context.Background()
		for _, event := range events {
			h.processEvent(ctx, event)
		}
	})
}

// processEvent handles a single webhook event asynchronously
func (h *Handler) processEvent(ctx context.Context, event webhook.EventInterface) {
	start := time.Now()

	e, ok := event.(webhook.MessageEvent)
	if !ok {
		h.logger.WithField("event_type", fmt.Sprintf("%T", event)).Debug("Unsupported event type")
		return
	}

	log := h.logger
	if e.WebhookEventId != "" {
		log = log.WithRequestID(e.WebhookEventId)
	}

	textMsg, ok := e.Message.(webhook.TextMessageContent)
	if !ok {
		log.WithField("message_type", e.Message.GetType()).Debug("Ignoring non-text message")
		return
	}

	messages := h.registry.DispatchMessage(ctx, textMsg.Text)
	if len(messages) == 0 {
		h.metrics.RecordWebhook("message", "ignored", time.Since(start).Seconds())
		return
	}
	if len(messages) > maxMessagesPerReply {
		log.WithField("message_count", len(messages)).Warn("Message count exceeds limit; truncating")
		messages = messages[:maxMessagesPerReply]
	}

	status := "success"
	if err := h.reply(e.ReplyToken, messages, log); err != nil {
		status = "reply_error"
	}
	h.metrics.RecordWebhook("message", status, time.Since(start).Seconds())

	log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("Event processed")
}

// reply sends the rendered messages back through the reply token.
func (h *Handler) reply(replyToken string, messages []messaging_api.MessageInterface, log *logger.Logger) error {
	if len(replyToken) < minReplyTokenLength {
		log.WithField("token_length", len(replyToken)).Debug("Invalid reply token, skipping reply")
		return nil
	}

	if _, err := h.client.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	}); err != nil {
		if strings.Contains(err.Error(), "Invalid reply token") {
			log.WithError(err).Debug("Reply token already used or invalid")
		} else {
			log.WithError(err).Error("Failed to send reply")
		}
		h.metrics.RecordHTTPError("reply_error", "webhook")
		return err
	}
	return nil
}

// Shutdown waits for all async event processing to complete.
// It returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		h.wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
