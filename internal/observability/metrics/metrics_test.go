package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveAvailability("degraded")
	m.ObserveAvailability("degraded")
	m.ObserveSubmission("success", 2)
	m.ObserveBooking("pending")
	m.ObserveWebhook("delivered")
	m.ObserveNotification("sms", "sent")
	m.ObserveWidgetMessage("bookingSubmitted", false)
	m.ObserveRequest("availability", "200", 0.02)

	if got := testutil.ToFloat64(m.availabilityTotal.WithLabelValues("degraded")); got != 2 {
		t.Fatalf("expected 2 degraded lookups, got %v", got)
	}
	if got := testutil.ToFloat64(m.widgetMessages.WithLabelValues("bookingSubmitted", "false")); got != 1 {
		t.Fatalf("expected 1 rejected widget message, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var attempts *dto.Histogram
	for _, mf := range families {
		if mf.GetName() == "salonbooker_submission_attempts" {
			attempts = mf.GetMetric()[0].GetHistogram()
		}
	}
	if attempts == nil {
		t.Fatal("submission attempts histogram not registered")
	}
	if attempts.GetSampleCount() != 1 || attempts.GetSampleSum() != 2 {
		t.Fatalf("unexpected attempts histogram count=%d sum=%v", attempts.GetSampleCount(), attempts.GetSampleSum())
	}
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveAvailability("ok")
	m.ObserveSubmission("failed", 3)
	m.ObserveBooking("confirmed")
	m.ObserveWebhook("failed")
	m.ObserveNotification("email", "failed")
	m.ObserveWidgetMessage("resize", true)
	m.ObserveRequest("bookings", "201", 0.1)
}
