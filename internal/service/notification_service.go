package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/print-order-service/internal/config"
	"github.com/spec-kit/print-order-service/internal/domain"
	"github.com/spec-kit/print-order-service/internal/events"
)

// NotificationService tells the pickup notifier when an order becomes ready.
// Delivery is fire-and-forget: a failed notification is logged and dropped,
// never surfaced to the admin's status-update call.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	client     *http.Client
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		client:     &http.Client{Timeout: cfg.Timeout()},
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventOrderStatusChanged, n.handleOrderStatusChanged)
}

func (n *NotificationService) handleOrderStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.OrderStatusChangedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("OrderStatusChanged",
		zap.String("order_id", event.OrderID),
		zap.String("old_status", string(payload.OldStatus)),
		zap.String("new_status", string(payload.NewStatus)))

	// The pickup notification fires on exactly one edge of the pipeline.
	if payload.NewStatus != domain.OrderStatusReadyForPickup {
		return nil
	}

	go n.sendPickupNotification(payload.CustomerName, event.OrderID)
	return nil
}

func (n *NotificationService) sendPickupNotification(customerName, orderID string) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		n.logger.Debug("no notification webhook configured",
			zap.String("order_id", orderID))
		return
	}

	body, err := json.Marshal(map[string]string{
		"customer_name": customerName,
		"order_id":      orderID,
		"message":       fmt.Sprintf("Hi %s, your printing job (Order ID: %s) is ready for pickup!", customerName, orderID),
	})
	if err != nil {
		n.logger.Warn("encode pickup notification", zap.Error(err))
		return
	}

	resp, err := n.client.Post(n.cfg.WebhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("pickup notification failed",
			zap.String("order_id", orderID),
			zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Warn("pickup notification rejected",
			zap.String("order_id", orderID),
			zap.Int("status", resp.StatusCode))
		return
	}
	n.logger.Info("pickup notification sent",
		zap.String("order_id", orderID),
		zap.String("customer_name", customerName))
}
