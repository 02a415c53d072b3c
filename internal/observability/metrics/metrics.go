package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flow.
type BookingMetrics struct {
	availabilityTotal *prometheus.CounterVec
	submissionsTotal  *prometheus.CounterVec
	submitAttempts    *prometheus.HistogramVec
	bookingsTotal     *prometheus.CounterVec
	webhookTotal      *prometheus.CounterVec
	notifyTotal       *prometheus.CounterVec
	widgetMessages    *prometheus.CounterVec
	requestLatency    *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbooker",
			Subsystem: "availability",
			Name:      "lookups_total",
			Help:      "Availability lookups by outcome (ok, degraded, not_selectable)",
		}, []string{"outcome"}),
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbooker",
			Subsystem: "submission",
			Name:      "results_total",
			Help:      "Booking submission results from the client side",
		}, []string{"result"}),
		submitAttempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salonbooker",
			Subsystem: "submission",
			Name:      "attempts",
			Help:      "Attempts needed per booking submission",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}, []string{"result"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbooker",
			Subsystem: "bookings",
			Name:      "created_total",
			Help:      "Bookings accepted by the API",
		}, []string{"status"}),
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbooker",
			Subsystem: "webhooks",
			Name:      "deliveries_total",
			Help:      "Outbound webhook deliveries",
		}, []string{"status"}),
		notifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbooker",
			Subsystem: "notify",
			Name:      "sent_total",
			Help:      "Customer and salon notifications",
		}, []string{"channel", "status"}),
		widgetMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbooker",
			Subsystem: "widget",
			Name:      "messages_total",
			Help:      "Frame messages handled by the widget host",
		}, []string{"type", "accepted"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salonbooker",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of public API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.availabilityTotal,
		m.submissionsTotal,
		m.submitAttempts,
		m.bookingsTotal,
		m.webhookTotal,
		m.notifyTotal,
		m.widgetMessages,
		m.requestLatency,
	)
	return m
}

func (m *BookingMetrics) ObserveAvailability(outcome string) {
	if m == nil {
		return
	}
	m.availabilityTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveSubmission(result string, attempts int) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(result).Inc()
	m.submitAttempts.WithLabelValues(result).Observe(float64(attempts))
}

func (m *BookingMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveWebhook(status string) {
	if m == nil {
		return
	}
	m.webhookTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveNotification(channel, status string) {
	if m == nil {
		return
	}
	m.notifyTotal.WithLabelValues(channel, status).Inc()
}

func (m *BookingMetrics) ObserveWidgetMessage(msgType string, accepted bool) {
	if m == nil {
		return
	}
	label := "false"
	if accepted {
		label = "true"
	}
	m.widgetMessages.WithLabelValues(msgType, label).Inc()
}

func (m *BookingMetrics) ObserveRequest(route, code string, seconds float64) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(route, code).Observe(seconds)
}
