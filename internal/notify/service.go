package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/salonbooker/salonbooker/internal/events"
	"github.com/salonbooker/salonbooker/internal/salon"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

// Handler names registered on the outbox fanout. They key processed_events.
const (
	HandlerCustomerConfirmation = "notify.customer_confirmation"
	HandlerSalonNotification    = "notify.salon_notification"
	HandlerCustomerCancellation = "notify.customer_cancellation"
)

// ConfigSource retrieves salon configuration.
type ConfigSource interface {
	Get(ctx context.Context, salonID string) (*salon.Config, error)
}

// Service sends booking notifications to customers and salons.
type Service struct {
	email     EmailSender
	sms       SMSSender
	configs   ConfigSource
	templates *Templates
	logger    *logging.Logger
}

// NewService creates a notification service. email or sms may be nil.
func NewService(email EmailSender, sms SMSSender, configs ConfigSource, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:     email,
		sms:       sms,
		configs:   configs,
		templates: MustTemplates(),
		logger:    logger,
	}
}

// Register wires the booking handlers into the outbox fanout.
func (s *Service) Register(f *events.Fanout) {
	f.Register(HandlerCustomerConfirmation, events.HandlerFunc(s.CustomerConfirmation), events.TypeBookingCreatedV1)
	f.Register(HandlerSalonNotification, events.HandlerFunc(s.SalonNotification), events.TypeBookingCreatedV1)
	f.Register(HandlerCustomerCancellation, events.HandlerFunc(s.CustomerCancellation), events.TypeBookingCancelledV1)
}

func (s *Service) config(ctx context.Context, salonID string) (*salon.Config, error) {
	if s.configs == nil {
		return salon.DefaultConfig(salonID), nil
	}
	cfg, err := s.configs.Get(ctx, salonID)
	if err != nil {
		return nil, fmt.Errorf("notify: get salon config: %w", err)
	}
	return cfg, nil
}

func created(cfg *salon.Config, evt events.BookingCreatedV1) MessageData {
	return MessageData{
		SalonName:     cfg.Name,
		SalonPhone:    cfg.Phone,
		SalonAddress:  cfg.Address,
		BookingID:     evt.BookingID,
		CustomerName:  evt.CustomerName,
		CustomerPhone: evt.CustomerPhone,
		CustomerEmail: evt.CustomerEmail,
		ServiceName:   evt.ServiceName,
		Duration:      evt.ServiceDuration,
		StaffName:     evt.StaffName,
		Date:          parseBookingDate(evt.BookingDate, cfg.Location()),
		Time:          evt.BookingTime,
		Notes:         evt.Notes,
		Status:        evt.Status,
		Pending:       evt.Status == salon.StatusPending,
	}
}

// CustomerConfirmation texts and emails the customer after a booking is accepted.
func (s *Service) CustomerConfirmation(ctx context.Context, entry events.OutboxEntry) error {
	var evt events.BookingCreatedV1
	if err := entry.Decode(&evt); err != nil {
		return err
	}
	cfg, err := s.config(ctx, evt.SalonID)
	if err != nil {
		return err
	}
	data := created(cfg, evt)

	var errs []error
	if cfg.Notifications.SMSEnabled && s.sms != nil && evt.CustomerPhone != "" {
		body, err := s.templates.Render(TemplateCustomerSMS, data)
		if err == nil {
			err = s.sms.SendSMS(ctx, evt.CustomerPhone, body)
		}
		if err != nil {
			s.logger.Error("notify: customer sms failed", "salon_id", evt.SalonID, "booking_id", evt.BookingID, "error", err)
			errs = append(errs, err)
		}
	}
	if cfg.Notifications.EmailEnabled && s.email != nil && evt.CustomerEmail != "" {
		msg, err := s.renderEmail(TemplateCustomerEmailSubject, TemplateCustomerEmailBody, data)
		if err == nil {
			msg.To = evt.CustomerEmail
			msg.ToName = evt.CustomerName
			msg.FromName = cfg.Name
			msg.ReplyTo = cfg.Notifications.SalonEmail
			err = s.email.Send(ctx, msg)
		}
		if err != nil {
			s.logger.Error("notify: customer email failed", "salon_id", evt.SalonID, "booking_id", evt.BookingID, "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		s.logger.Info("notify: customer confirmation sent", "salon_id", evt.SalonID, "booking_id", evt.BookingID)
	}
	return errors.Join(errs...)
}

// SalonNotification emails the salon about a new online booking.
func (s *Service) SalonNotification(ctx context.Context, entry events.OutboxEntry) error {
	var evt events.BookingCreatedV1
	if err := entry.Decode(&evt); err != nil {
		return err
	}
	cfg, err := s.config(ctx, evt.SalonID)
	if err != nil {
		return err
	}
	to := cfg.Notifications.SalonEmail
	if to == "" || s.email == nil {
		s.logger.Debug("notify: salon email not configured", "salon_id", evt.SalonID)
		return nil
	}
	msg, err := s.renderEmail(TemplateSalonEmailSubject, TemplateSalonEmailBody, created(cfg, evt))
	if err != nil {
		return err
	}
	msg.To = to
	msg.ToName = cfg.Name
	msg.ReplyTo = evt.CustomerEmail
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("notify: salon email failed", "salon_id", evt.SalonID, "booking_id", evt.BookingID, "error", err)
		return err
	}
	return nil
}

// CustomerCancellation texts the customer when the salon cancels.
func (s *Service) CustomerCancellation(ctx context.Context, entry events.OutboxEntry) error {
	var evt events.BookingCancelledV1
	if err := entry.Decode(&evt); err != nil {
		return err
	}
	cfg, err := s.config(ctx, evt.SalonID)
	if err != nil {
		return err
	}
	if !cfg.Notifications.SMSEnabled || s.sms == nil || evt.CustomerPhone == "" {
		return nil
	}
	body, err := s.templates.Render(TemplateCancellationSMS, MessageData{
		SalonName:    cfg.Name,
		BookingID:    evt.BookingID,
		CustomerName: evt.CustomerName,
		ServiceName:  evt.ServiceName,
		Date:         parseBookingDate(evt.BookingDate, cfg.Location()),
		Time:         evt.BookingTime,
		Status:       "cancelled",
	})
	if err != nil {
		return err
	}
	return s.sms.SendSMS(ctx, evt.CustomerPhone, body)
}

// SendReminder texts the customer ahead of the appointment.
func (s *Service) SendReminder(ctx context.Context, evt events.BookingCreatedV1) error {
	cfg, err := s.config(ctx, evt.SalonID)
	if err != nil {
		return err
	}
	if !cfg.Notifications.ReminderEnabled || s.sms == nil || evt.CustomerPhone == "" {
		s.logger.Debug("notify: reminder skipped", "salon_id", evt.SalonID, "booking_id", evt.BookingID)
		return nil
	}
	body, err := s.templates.Render(TemplateReminderSMS, created(cfg, evt))
	if err != nil {
		return err
	}
	if err := s.sms.SendSMS(ctx, evt.CustomerPhone, body); err != nil {
		return err
	}
	s.logger.Info("notify: reminder sent", "salon_id", evt.SalonID, "booking_id", evt.BookingID)
	return nil
}

func (s *Service) renderEmail(subjectTmpl, bodyTmpl string, data MessageData) (EmailMessage, error) {
	subject, err := s.templates.Render(subjectTmpl, data)
	if err != nil {
		return EmailMessage{}, err
	}
	body, err := s.templates.Render(bodyTmpl, data)
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{Subject: subject, Body: body}, nil
}
