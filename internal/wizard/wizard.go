package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/salonbooker/salonbooker/internal/availability"
	"github.com/salonbooker/salonbooker/internal/hours"
	"github.com/salonbooker/salonbooker/internal/salon"
	"github.com/salonbooker/salonbooker/internal/submission"
	"github.com/salonbooker/salonbooker/internal/validation"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

// Submitter creates the booking remotely.
type Submitter interface {
	Submit(ctx context.Context, salonID string, req submission.Request, idempotencyKey string) (submission.Confirmation, error)
}

// SlotLoader fetches availability for a YYYY-MM-DD date.
type SlotLoader interface {
	Slots(ctx context.Context, salonID, date string) (availability.Day, error)
}

// Notifier tells the embedding page about a finished booking.
type Notifier interface {
	BookingSubmitted(ctx context.Context, result Result)
}

// Draft is the booking being assembled.
type Draft struct {
	Service       salon.Service `json:"service"`
	Date          time.Time     `json:"date"`
	Time          string        `json:"time"`
	CustomerName  string        `json:"customer_name"`
	CustomerPhone string        `json:"customer_phone"`
	CustomerEmail string        `json:"customer_email,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	StaffName     string        `json:"staff_name,omitempty"`
}

// HasService reports whether a service was picked.
func (d Draft) HasService() bool {
	return d.Service.ID != ""
}

// HasDate reports whether a date was picked.
func (d Draft) HasDate() bool {
	return !d.Date.IsZero()
}

// DateString renders the selected date as YYYY-MM-DD, or "".
func (d Draft) DateString() string {
	if !d.HasDate() {
		return ""
	}
	return hours.FormatDate(d.Date)
}

func (d Draft) details() validation.Details {
	return validation.Details{Name: d.CustomerName, Phone: d.CustomerPhone, Email: d.CustomerEmail}
}

// Result is the finalized booking handed to the embedding page.
type Result struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	SalonID       string `json:"salon_id"`
	Service       string `json:"service"`
	Duration      int    `json:"duration"`
	Price         string `json:"price"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email,omitempty"`
	StaffName     string `json:"staff_name,omitempty"`
}

// Options configures a Wizard.
type Options struct {
	SalonID  string
	Services []salon.Service
	Staff    []string

	Submitter Submitter
	Slots     SlotLoader
	Notifier  Notifier
	Logger    *logging.Logger

	// SkipConfirmation submits straight from the details step.
	SkipConfirmation bool
	// InitialStatus is sent as the requested booking status.
	InitialStatus string
}

// Wizard is one visitor's booking flow. It is safe for concurrent use.
type Wizard struct {
	mu sync.Mutex

	opts    Options
	logger  *logging.Logger
	newKey  func() string
	initial string

	state     State
	draft     Draft
	slotsDate string
	slots     []availability.TimeSlot
	degraded  bool
	lastErr   error
	key       string
	completed *Result
}

// New creates a wizard at SelectingService with an empty draft.
func New(opts Options) *Wizard {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	initial := opts.InitialStatus
	if initial == "" {
		initial = salon.StatusPending
	}
	return &Wizard{
		opts:    opts,
		logger:  logger,
		newKey:  uuid.NewString,
		initial: initial,
		state:   SelectingService,
	}
}

// State returns the current step.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Draft returns a copy of the draft.
func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// LastError is the error surfaced on the current step, if any.
func (w *Wizard) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Slots returns the loaded slots and the date they belong to.
func (w *Wizard) Slots() (date string, slots []availability.TimeSlot, degraded bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.slotsDate, append([]availability.TimeSlot(nil), w.slots...), w.degraded
}

// Completed returns the last successful booking while the success view is shown.
func (w *Wizard) Completed() *Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.completed == nil {
		return nil
	}
	r := *w.completed
	return &r
}

// Services returns the menu the wizard offers.
func (w *Wizard) Services() []salon.Service {
	return w.opts.Services
}

// Staff returns the staff names the wizard offers.
func (w *Wizard) Staff() []string {
	return w.opts.Staff
}

// SelectService picks a service on the first step.
func (w *Wizard) SelectService(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != SelectingService {
		return w.invalid("select service")
	}
	for _, svc := range w.opts.Services {
		if svc.ID == id {
			if svc.ID != w.draft.Service.ID {
				w.draft.Service = svc
				w.key = ""
			}
			w.lastErr = nil
			return nil
		}
	}
	w.lastErr = ErrUnknownService
	return ErrUnknownService
}

// SelectDate picks a date and discards the slots of any previous date.
func (w *Wizard) SelectDate(date time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != SelectingDateTime {
		return w.invalid("select date")
	}
	w.draft.Date = hours.DateOnly(date)
	w.draft.Time = ""
	w.slots = nil
	w.slotsDate = ""
	w.degraded = false
	w.key = ""
	w.lastErr = nil
	return nil
}

// ApplySlots installs availability fetched for date. Results for any date other
// than the currently selected one are stale and dropped; ApplySlots reports
// whether they were applied.
func (w *Wizard) ApplySlots(date string, day availability.Day) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != SelectingDateTime || date != w.draft.DateString() || day.Date != date {
		return false
	}
	w.slots = append([]availability.TimeSlot(nil), day.Slots...)
	w.slotsDate = date
	w.degraded = day.Degraded
	return true
}

// LoadSlots fetches availability for the selected date through the SlotLoader.
func (w *Wizard) LoadSlots(ctx context.Context) error {
	w.mu.Lock()
	date := w.draft.DateString()
	state := w.state
	w.mu.Unlock()

	if state != SelectingDateTime {
		return w.invalidLocked("load slots")
	}
	if date == "" {
		return ErrDateRequired
	}
	if w.opts.Slots == nil {
		return errors.New("wizard: no slot loader configured")
	}

	day, err := w.opts.Slots.Slots(ctx, w.opts.SalonID, date)
	if err != nil {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.draft.DateString() == date {
			if errors.Is(err, availability.ErrDateNotSelectable) {
				w.draft.Date = time.Time{}
			}
			w.lastErr = err
		}
		return err
	}
	if !w.ApplySlots(date, day) {
		w.logger.Debug("dropped stale slots", "salon_id", w.opts.SalonID, "date", date)
	}
	return nil
}

// SelectTime picks one of the available slots for the selected date.
func (w *Wizard) SelectTime(slot string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != SelectingDateTime {
		return w.invalid("select time")
	}
	if !w.draft.HasDate() {
		w.lastErr = ErrDateRequired
		return ErrDateRequired
	}
	normalized, ok := hours.NormalizeSlot(slot)
	if !ok || !w.slotAvailable(normalized) {
		w.lastErr = ErrTimeUnavailable
		return ErrTimeUnavailable
	}
	if normalized != w.draft.Time {
		w.draft.Time = normalized
		w.key = ""
	}
	w.lastErr = nil
	return nil
}

func (w *Wizard) slotAvailable(slot string) bool {
	if w.slotsDate != w.draft.DateString() {
		return false
	}
	for _, s := range w.slots {
		if s.Time == slot {
			return s.Available
		}
	}
	return false
}

// SetDetails stores the customer form. Validation runs when leaving the step.
func (w *Wizard) SetDetails(details validation.Details, notes, staff string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != EnteringDetails {
		return w.invalid("set details")
	}
	next := w.draft
	next.CustomerName = details.Name
	next.CustomerPhone = details.Phone
	next.CustomerEmail = details.Email
	next.Notes = notes
	next.StaffName = staff
	if next != w.draft {
		w.draft = next
		w.key = ""
	}
	return nil
}

// Next advances one step if the current step validates.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var err error
	switch w.state {
	case SelectingService:
		if err = w.checkService(); err == nil {
			w.state = SelectingDateTime
		}
	case SelectingDateTime:
		if err = w.checkDateTime(); err == nil {
			w.state = EnteringDetails
		}
	case EnteringDetails:
		if w.opts.SkipConfirmation {
			return w.invalid("next")
		}
		if err = w.draft.details().Validate(); err == nil {
			w.state = AwaitingConfirmation
		}
	default:
		return w.invalid("next")
	}
	w.lastErr = err
	return err
}

// Back returns to the previous step from the date or details step.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case SelectingDateTime:
		w.state = SelectingService
	case EnteringDetails:
		w.state = SelectingDateTime
	default:
		return w.invalid("back")
	}
	w.lastErr = nil
	return nil
}

func (w *Wizard) checkService() error {
	if !w.draft.HasService() {
		return ErrServiceRequired
	}
	return nil
}

func (w *Wizard) checkDateTime() error {
	if !w.draft.HasDate() {
		return ErrDateRequired
	}
	if w.draft.Time == "" {
		return ErrTimeRequired
	}
	if !w.slotAvailable(w.draft.Time) {
		return ErrTimeUnavailable
	}
	return nil
}

func (w *Wizard) checkSubmittable() error {
	if err := w.checkService(); err != nil {
		return err
	}
	if !w.draft.HasDate() {
		return ErrDateRequired
	}
	if w.draft.Time == "" {
		return ErrTimeRequired
	}
	return w.draft.details().Validate()
}

// Submit sends the frozen draft. It is allowed from AwaitingConfirmation, or
// from EnteringDetails when the confirmation step is skipped. On success the
// embedding page is notified and the draft is reset; on failure the wizard
// returns to EnteringDetails with LastError set.
func (w *Wizard) Submit(ctx context.Context) (*Result, error) {
	w.mu.Lock()
	switch {
	case w.state == Submitting:
		w.mu.Unlock()
		return nil, ErrSubmissionInFlight
	case w.state == AwaitingConfirmation, w.state == EnteringDetails && w.opts.SkipConfirmation:
	default:
		err := w.invalid("submit")
		w.mu.Unlock()
		return nil, err
	}
	if err := w.checkSubmittable(); err != nil {
		w.lastErr = err
		w.mu.Unlock()
		return nil, err
	}
	if w.opts.Submitter == nil {
		w.mu.Unlock()
		return nil, errors.New("wizard: no submitter configured")
	}
	if w.key == "" {
		w.key = w.newKey()
	}
	w.state = Submitting
	w.lastErr = nil
	frozen := w.draft
	key := w.key
	w.mu.Unlock()

	conf, err := w.opts.Submitter.Submit(ctx, w.opts.SalonID, w.request(frozen), key)

	w.mu.Lock()
	if err != nil {
		w.state = Failed
		w.lastErr = err
		w.logger.Warn("booking submission failed", "salon_id", w.opts.SalonID, "error", err)
		w.state = EnteringDetails
		w.mu.Unlock()
		return nil, err
	}

	result := w.result(frozen, conf)
	w.state = Succeeded
	w.completed = &result
	w.clearDraft()
	w.mu.Unlock()

	if w.opts.Notifier != nil {
		w.opts.Notifier.BookingSubmitted(ctx, result)
	}
	return &result, nil
}

// Reset discards the draft and returns to SelectingService.
func (w *Wizard) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Submitting {
		return ErrSubmissionInFlight
	}
	w.clearDraft()
	w.completed = nil
	w.lastErr = nil
	w.state = SelectingService
	return nil
}

func (w *Wizard) clearDraft() {
	w.draft = Draft{}
	w.slots = nil
	w.slotsDate = ""
	w.degraded = false
	w.key = ""
}

func (w *Wizard) request(d Draft) submission.Request {
	return submission.Request{
		CustomerName:    d.CustomerName,
		CustomerPhone:   d.CustomerPhone,
		CustomerEmail:   d.CustomerEmail,
		ServiceName:     d.Service.Name,
		ServiceDuration: d.Service.DurationMinutes,
		StaffName:       d.StaffName,
		BookingDate:     d.DateString(),
		BookingTime:     d.Time,
		Notes:           d.Notes,
		Status:          w.initial,
	}
}

func (w *Wizard) result(d Draft, conf submission.Confirmation) Result {
	return Result{
		ID:            conf.ID,
		Status:        conf.Status,
		SalonID:       w.opts.SalonID,
		Service:       d.Service.Name,
		Duration:      d.Service.DurationMinutes,
		Price:         d.Service.Price.StringFixed(2),
		Date:          d.DateString(),
		Time:          d.Time,
		CustomerName:  d.CustomerName,
		CustomerPhone: d.CustomerPhone,
		CustomerEmail: d.CustomerEmail,
		StaffName:     d.StaffName,
	}
}

func (w *Wizard) invalid(action string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, w.state)
}

func (w *Wizard) invalidLocked(action string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.invalid(action)
}
