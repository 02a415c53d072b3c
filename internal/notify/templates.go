package notify

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/salonbooker/salonbooker/internal/hours"
	"github.com/salonbooker/salonbooker/internal/locale"
)

const (
	TemplateCustomerSMS          = "customer_sms"
	TemplateCustomerEmailSubject = "customer_email_subject"
	TemplateCustomerEmailBody    = "customer_email_body"
	TemplateSalonEmailSubject    = "salon_email_subject"
	TemplateSalonEmailBody       = "salon_email_body"
	TemplateReminderSMS          = "reminder_sms"
	TemplateCancellationSMS      = "cancellation_sms"
)

var messageTemplates = map[string]string{
	TemplateCustomerSMS: `Hoi {{.FirstName}}, je afspraak voor {{.ServiceName}} bij {{.SalonName}} op {{.DateLabel}} om {{.Time}} is ` +
		`{{if .Pending}}ontvangen. De salon bevestigt zo snel mogelijk.{{else}}bevestigd.{{end}}`,

	TemplateCustomerEmailSubject: `{{if .Pending}}Aanvraag ontvangen{{else}}Afspraak bevestigd{{end}}: {{.ServiceName}} op {{.ShortDate}} om {{.Time}}`,

	TemplateCustomerEmailBody: `Hoi {{.FirstName}},

{{if .Pending}}We hebben je aanvraag ontvangen. {{.SalonName}} bevestigt je afspraak zo snel mogelijk.{{else}}Je afspraak bij {{.SalonName}} is bevestigd.{{end}}

Behandeling: {{.ServiceName}} ({{.Duration}} min)
Datum: {{.DateLabel}} om {{.Time}}
{{- if .StaffName}}
Medewerker: {{.StaffName}}{{end}}
{{- if .SalonAddress}}
Adres: {{.SalonAddress}}{{end}}
Referentie: {{.BookingID}}

Verhinderd? {{if .SalonPhone}}Bel ons op {{.SalonPhone}}.{{else}}Neem contact op met de salon.{{end}}

Tot snel,
{{.SalonName}}
`,

	TemplateSalonEmailSubject: `Nieuwe online afspraak: {{.CustomerName}}, {{.ShortDate}} {{.Time}}`,

	TemplateSalonEmailBody: `Er is een nieuwe afspraak gemaakt via de website.

Klant: {{.CustomerName}}
Telefoon: {{.CustomerPhone}}
{{- if .CustomerEmail}}
E-mail: {{.CustomerEmail}}{{end}}
Behandeling: {{.ServiceName}} ({{.Duration}} min)
Datum: {{.DateLabel}} om {{.Time}}
Medewerker: {{.StaffName}}
{{- if .Notes}}
Opmerkingen: {{.Notes}}{{end}}
Status: {{.Status}}
Referentie: {{.BookingID}}
`,

	TemplateReminderSMS: `Herinnering: {{.DateLabel}} om {{.Time}} heb je een afspraak voor {{.ServiceName}} bij {{.SalonName}}.` +
		`{{if .SalonPhone}} Verhinderd? Bel {{.SalonPhone}}.{{end}}`,

	TemplateCancellationSMS: `Hoi {{.FirstName}}, je afspraak voor {{.ServiceName}} bij {{.SalonName}} op {{.DateLabel}} om {{.Time}} is geannuleerd.`,
}

// MessageData is the view every notification template renders.
type MessageData struct {
	SalonName     string
	SalonPhone    string
	SalonAddress  string
	BookingID     string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	ServiceName   string
	Duration      int
	StaffName     string
	Date          time.Time
	Time          string
	Notes         string
	Status        string
	Pending       bool
}

// FirstName is the first word of the customer name.
func (d MessageData) FirstName() string {
	if f := strings.Fields(d.CustomerName); len(f) > 0 {
		return f[0]
	}
	return d.CustomerName
}

// DateLabel renders the appointment day in Dutch.
func (d MessageData) DateLabel() string {
	return locale.FormatDate(d.Date)
}

// ShortDate renders "do 15 okt".
func (d MessageData) ShortDate() string {
	return locale.FormatShortDate(d.Date)
}

// parseBookingDate reads YYYY-MM-DD in loc.
func parseBookingDate(value string, loc *time.Location) time.Time {
	t, err := hours.ParseDate(value, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Templates renders the named notification texts.
type Templates struct {
	set *template.Template
}

// NewTemplates parses the built-in Dutch message templates.
func NewTemplates() (*Templates, error) {
	set := template.New("notify").Option("missingkey=error")
	for name, text := range messageTemplates {
		if _, err := set.New(name).Parse(text); err != nil {
			return nil, fmt.Errorf("notify: parse template %s: %w", name, err)
		}
	}
	return &Templates{set: set}, nil
}

// MustTemplates is NewTemplates for package-level initialisation.
func MustTemplates() *Templates {
	t, err := NewTemplates()
	if err != nil {
		panic(err)
	}
	return t
}

// Render executes one template.
func (t *Templates) Render(name string, data MessageData) (string, error) {
	var buf bytes.Buffer
	if err := t.set.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", name, err)
	}
	return buf.String(), nil
}
