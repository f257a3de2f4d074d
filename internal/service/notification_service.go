package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Dwisantra/simpefov2/internal/config"
	"github.com/Dwisantra/simpefov2/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketSubmitted, n.handleTicketSubmitted)
	n.dispatcher.Subscribe(events.EventStageApproved, n.handleStageApproved)
	n.dispatcher.Subscribe(events.EventPriorityChanged, n.handlePriorityChanged)
	n.dispatcher.Subscribe(events.EventDevelopmentStatusChanged, n.handleDevelopmentStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketReleased, n.handleTicketReleased)
	n.dispatcher.Subscribe(events.EventUserVerified, n.handleUserVerified)
}

func (n *NotificationService) handleTicketSubmitted(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketSubmitted", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleStageApproved(ctx context.Context, event events.Event) error {
	n.logger.Info("StageApproved", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handlePriorityChanged(_ context.Context, event events.Event) error {
	n.logger.Info("PriorityChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleDevelopmentStatusChanged(_ context.Context, event events.Event) error {
	n.logger.Info("DevelopmentStatusChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketReleased(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketReleased", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleUserVerified(ctx context.Context, event events.Event) error {
	n.logger.Info("UserVerified", zap.Any("payload", event.Payload))
	// The verification mail carries the login link so the new account can get
	// started without asking the admin.
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("login_url", n.cfg.LoginURL),
		zap.String("event_type", string(event.Type)))
}
