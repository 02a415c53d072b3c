package bootstrap

import (
	"context"
	"testing"

	appconfig "github.com/salonbooker/salonbooker/internal/config"
	"github.com/salonbooker/salonbooker/internal/notify"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

func TestBuildEmailSenderSelection(t *testing.T) {
	logger := logging.Discard()
	ctx := context.Background()

	sender, err := BuildEmailSender(ctx, &appconfig.Config{}, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sender.(*notify.StubEmailSender); !ok {
		t.Fatalf("expected stub sender, got %T", sender)
	}

	sender, err = BuildEmailSender(ctx, &appconfig.Config{EmailProvider: "sendgrid"}, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sender.(*notify.StubEmailSender); !ok {
		t.Fatalf("expected stub sender without api key, got %T", sender)
	}

	sender, err = BuildEmailSender(ctx, &appconfig.Config{EmailProvider: "sendgrid", SendGridAPIKey: "SG.test", EmailFromAddress: "noreply@salonbooker.nl"}, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sender.(*notify.SendGridSender); !ok {
		t.Fatalf("expected sendgrid sender, got %T", sender)
	}

	sender, err = BuildEmailSender(ctx, &appconfig.Config{
		EmailProvider:      "ses",
		AWSRegion:          "eu-west-1",
		AWSAccessKeyID:     "AKIDEXAMPLE",
		AWSSecretAccessKey: "secret",
		EmailFromAddress:   "noreply@salonbooker.nl",
	}, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sender.(*notify.SESSender); !ok {
		t.Fatalf("expected ses sender, got %T", sender)
	}

	if _, err := BuildEmailSender(ctx, &appconfig.Config{EmailProvider: "pigeon"}, logger); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestBuildSMSSender(t *testing.T) {
	logger := logging.Discard()
	if _, ok := BuildSMSSender(&appconfig.Config{}, logger).(*notify.StubSMSSender); !ok {
		t.Fatal("expected stub sms sender without credentials")
	}
	cfg := &appconfig.Config{TwilioAccountSID: "AC123", TwilioAuthToken: "token", TwilioFromNumber: "+3197010000000"}
	if _, ok := BuildSMSSender(cfg, logger).(*notify.TwilioSender); !ok {
		t.Fatal("expected twilio sender")
	}
}
