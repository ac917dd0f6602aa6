package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"smartpark/internal/config"
)

type EmailSender interface {
	SendEmail(ctx context.Context, toEmail, toName, subject, plainText, html string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, toNumber, body string) error
}

type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *slog.Logger
}

// NewSendGridSender fails when the API key or sender address is missing.
func NewSendGridSender(cfg config.NotifyConfig, logger *slog.Logger) (*SendGridSender, error) {
	if cfg.SendGridAPIKey == "" {
		logger.Warn("SENDGRID_API_KEY is not set, report e-mails will not be sent")
		return nil, fmt.Errorf("SENDGRID_API_KEY is not set")
	}
	if cfg.SendGridFromEmail == "" {
		logger.Warn("SENDGRID_FROM_EMAIL is not set, report e-mails will not be sent")
		return nil, fmt.Errorf("SENDGRID_FROM_EMAIL is not set")
	}
	fromName := cfg.SendGridFromName
	if fromName == "" {
		fromName = "SmartPark"
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromEmail: cfg.SendGridFromEmail,
		fromName:  fromName,
		logger:    logger,
	}, nil
}

func (s *SendGridSender) SendEmail(ctx context.Context, toEmail, toName, subject, plainText, html string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, html)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending e-mail through SendGrid: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("SendGrid returned status %d: %s", response.StatusCode, response.Body)
	}

	s.logger.Info("Report e-mail sent", "to", toEmail, "subject", subject, "status", response.StatusCode)
	return nil
}

type TwilioSender struct {
	client     *twilio.RestClient
	fromNumber string
	logger     *slog.Logger
}

// NewTwilioSender fails when any Twilio credential is missing.
func NewTwilioSender(cfg config.NotifyConfig, logger *slog.Logger) (*TwilioSender, error) {
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromNumber == "" {
		logger.Warn("Twilio credentials are not fully configured, report SMS will not be sent")
		return nil, fmt.Errorf("twilio credentials not configured")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   cfg.TwilioAccountSID,
		Password:   cfg.TwilioAuthToken,
		AccountSid: cfg.TwilioAccountSID,
	})
	return &TwilioSender{client: client, fromNumber: cfg.TwilioFromNumber, logger: logger}, nil
}

func (s *TwilioSender) SendSMS(ctx context.Context, toNumber, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !strings.HasPrefix(toNumber, "+") {
		s.logger.Warn("Destination number is not in E.164 format, SMS may fail", "to", toNumber)
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(s.fromNumber)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("sending SMS: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		s.logger.Info("Report SMS sent", "to", toNumber, "sid", *resp.Sid)
	}
	return nil
}
