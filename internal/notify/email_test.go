package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/salonbooker/salonbooker/pkg/logging"
)

type fakeSendGrid struct {
	sent   []*mail.SGMailV3
	status int
	err    error
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, email *mail.SGMailV3) (*sendGridResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, email)
	return &sendGridResponse{StatusCode: f.status}, nil
}

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	if sender := NewSendGridSender(SendGridConfig{FromEmail: "boekingen@salonbooker.nl"}, nil); sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "boekingen@salonbooker.nl"}, nil)
	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != "SalonBooker" {
		t.Errorf("expected default from name, got %q", sender.fromName)
	}
}

func TestSendGridSender_SendUsesSalonNameAndReplyTo(t *testing.T) {
	fake := &fakeSendGrid{status: 202}
	sender := &SendGridSender{client: fake, fromEmail: "boekingen@salonbooker.nl", fromName: "SalonBooker", logger: logging.Discard()}

	err := sender.Send(context.Background(), EmailMessage{
		To:       "anna@example.nl",
		ToName:   "Anna",
		ReplyTo:  "info@kapsalon-anna.nl",
		FromName: "Kapsalon Anna",
		Subject:  "Afspraak bevestigd",
		Body:     "Tot snel",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(fake.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(fake.sent))
	}
	got := fake.sent[0]
	if got.From.Name != "Kapsalon Anna" || got.From.Address != "boekingen@salonbooker.nl" {
		t.Errorf("unexpected from %+v", got.From)
	}
	if got.ReplyTo == nil || got.ReplyTo.Address != "info@kapsalon-anna.nl" {
		t.Errorf("unexpected reply-to %+v", got.ReplyTo)
	}
	if got.Subject != "Afspraak bevestigd" {
		t.Errorf("unexpected subject %q", got.Subject)
	}
}

func TestSendGridSender_SendErrors(t *testing.T) {
	sender := &SendGridSender{client: &fakeSendGrid{status: 401}, logger: logging.Discard()}
	if err := sender.Send(context.Background(), EmailMessage{To: "a@example.nl"}); err == nil {
		t.Error("expected error for 401 status")
	}

	sender = &SendGridSender{client: &fakeSendGrid{err: errors.New("dial tcp")}, logger: logging.Discard()}
	if err := sender.Send(context.Background(), EmailMessage{To: "a@example.nl"}); err == nil {
		t.Error("expected transport error")
	}

	var unset *SendGridSender
	if err := unset.Send(context.Background(), EmailMessage{To: "a@example.nl"}); err == nil {
		t.Error("expected error when sender is nil")
	}
}

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	fake := &fakeSES{}
	sender := newSESSender(fake, SESConfig{FromEmail: "boekingen@salonbooker.nl"}, logging.Discard())

	err := sender.Send(context.Background(), EmailMessage{
		To:       "anna@example.nl",
		ReplyTo:  "info@kapsalon-anna.nl",
		FromName: "Kapsalon Anna",
		Subject:  "Afspraak bevestigd",
		Body:     "Tot snel",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	in := fake.inputs[0]
	if got := aws.ToString(in.FromEmailAddress); got != "Kapsalon Anna <boekingen@salonbooker.nl>" {
		t.Errorf("unexpected from %q", got)
	}
	if len(in.ReplyToAddresses) != 1 || in.ReplyToAddresses[0] != "info@kapsalon-anna.nl" {
		t.Errorf("unexpected reply-to %v", in.ReplyToAddresses)
	}
	if in.Content.Simple.Body.Html != nil {
		t.Error("expected no html part")
	}
	if got := aws.ToString(in.Content.Simple.Body.Text.Data); got != "Tot snel" {
		t.Errorf("unexpected body %q", got)
	}
}

func TestSESSender_SendError(t *testing.T) {
	sender := newSESSender(&fakeSES{err: errors.New("throttled")}, SESConfig{FromEmail: "x@y.nl"}, logging.Discard())
	if err := sender.Send(context.Background(), EmailMessage{To: "a@example.nl", Subject: "s"}); err == nil {
		t.Fatal("expected error")
	}
	if NewSESSender(nil, SESConfig{}, nil) != nil {
		t.Error("expected nil sender for nil client")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	if err := NewStubEmailSender(logging.Discard()).Send(context.Background(), EmailMessage{To: "a@example.nl"}); err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
}
