package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/itops/support-portal/internal/config"
	"github.com/itops/support-portal/internal/events"
)

// EventPublisher is the subset of the Redis client the worker needs.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// NotificationWorker fans lifecycle events out to the notification
// sinks: a Redis channel for live consumers and an optional webhook.
// Delivery is best effort; a failing sink never blocks the request
// that produced the event.
type NotificationWorker struct {
	publisher EventPublisher
	client    *http.Client
	logger    *zap.Logger
	cfg       config.NotificationConfig
}

func NewNotificationWorker(publisher EventPublisher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		publisher: publisher,
		client:    &http.Client{Timeout: 5 * time.Second},
		logger:    logger,
		cfg:       cfg,
	}
}

// Register subscribes the worker to every event type it forwards.
func (w *NotificationWorker) Register(dispatcher events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketAssigned,
		events.EventTicketPriorityChanged,
		events.EventTicketCommentAdded,
		events.EventTicketAttachmentAdded,
		events.EventTicketDeleted,
		events.EventTicketSLABreached,
	} {
		dispatcher.Subscribe(eventType, w.Handle)
	}
}

// Handle forwards one event to the configured sinks.
func (w *NotificationWorker) Handle(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	w.logger.Info("ticket event",
		zap.String("type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_role", string(event.Actor.Role)))

	if w.publisher != nil && w.cfg.RedisChannel != "" {
		if err := w.publisher.Publish(ctx, w.cfg.RedisChannel, payload); err != nil {
			w.logger.Warn("redis publish failed",
				zap.String("channel", w.cfg.RedisChannel), zap.Error(err))
		}
	}
	if w.cfg.WebhookURL != "" {
		w.postWebhook(ctx, payload)
	}
	return nil
}

func (w *NotificationWorker) postWebhook(ctx context.Context, payload []byte) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		w.logger.Warn("webhook request failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warn("webhook delivery failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		w.logger.Warn("webhook rejected", zap.Int("status", resp.StatusCode))
	}
}
