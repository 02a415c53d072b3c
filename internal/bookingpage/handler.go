package bookingpage

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/salonbooker/salonbooker/internal/availability"
	"github.com/salonbooker/salonbooker/internal/hours"
	"github.com/salonbooker/salonbooker/internal/locale"
	"github.com/salonbooker/salonbooker/internal/salon"
	"github.com/salonbooker/salonbooker/internal/submission"
	"github.com/salonbooker/salonbooker/internal/tenancy"
	"github.com/salonbooker/salonbooker/internal/validation"
	"github.com/salonbooker/salonbooker/internal/widget"
	"github.com/salonbooker/salonbooker/internal/wizard"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// SessionCookie names the visitor session cookie.
const SessionCookie = "sb_session"

var accentPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ConfigSource loads a salon's configuration.
type ConfigSource interface {
	Get(ctx context.Context, salonID string) (*salon.Config, error)
}

// DateSource lists selectable booking dates.
type DateSource interface {
	Dates(ctx context.Context, salonID string) ([]time.Time, error)
}

// Deps wires the booking page.
type Deps struct {
	Configs   ConfigSource
	Dates     DateSource
	Slots     wizard.SlotLoader
	Submitter wizard.Submitter
	Sessions  *SessionStore
	Logger    *logging.Logger
	// SecureCookies marks the session cookie Secure and SameSite=None so it
	// survives third-party iframes.
	SecureCookies bool
}

// Handler renders the iframe booking wizard.
type Handler struct {
	deps   Deps
	logger *logging.Logger
	tmpl   *template.Template
}

// NewHandler parses the page templates.
func NewHandler(deps Deps) (*Handler, error) {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	tmpl, err := template.New("page.html").Funcs(template.FuncMap{
		"price":     locale.FormatPrice,
		"longDate":  locale.FormatDate,
		"shortDate": locale.FormatShortDate,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{deps: deps, logger: logger, tmpl: tmpl}, nil
}

// Routes mounts under /book.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.RedirectFromQuery)
	r.Get("/{salonID}", h.Show)
	r.Post("/{salonID}", h.Act)
	return r
}

// RedirectFromQuery turns the widget's /book?salon=... frame URL into /book/{salon}.
func (h *Handler) RedirectFromQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	salonID := q.Get("salon")
	if !tenancy.ValidSalonID(salonID) {
		http.NotFound(w, r)
		return
	}
	q.Del("salon")
	target := strings.TrimRight(r.URL.Path, "/") + "/" + salonID
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}
	http.Redirect(w, r, target, http.StatusFound)
}

type serviceOption struct {
	salon.Service
	PriceLabel string
	Selected   bool
}

type dateOption struct {
	Value    string
	Label    string
	Selected bool
}

type pageView struct {
	SalonName string
	Theme     string
	Lang      string
	Accent    string
	Query     template.URL
	State     string
	Step      int

	Services   []serviceOption
	Dates      []dateOption
	Slots      []availability.TimeSlot
	Degraded   bool
	Staff      []string
	Draft      wizard.Draft
	DateLabel  string
	PriceLabel string

	Error     string
	Completed *wizard.Result
	DoneLabel string
	Messages  []any
}

// Show handles GET /book/{salonID}.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")
	if !tenancy.ValidSalonID(salonID) {
		http.NotFound(w, r)
		return
	}
	ctx := tenancy.WithSalonID(r.Context(), salonID)
	cfg, err := h.deps.Configs.Get(ctx, salonID)
	if err != nil {
		h.logger.Error("booking page config load failed", "salon_id", salonID, "error", err)
		h.renderError(w, r, http.StatusServiceUnavailable, "De online agenda is tijdelijk niet beschikbaar.")
		return
	}
	h.setFrameHeaders(w, cfg)

	sessionID, rec := h.session(w, r, salonID)
	wz := h.newWizard(cfg, nil)
	wz.Restore(rec.Snapshot)

	view := h.view(ctx, r, cfg, wz, rec)
	h.render(w, http.StatusOK, view)

	rec.Flash = ""
	rec.Outbox = nil
	if err := h.deps.Sessions.Save(ctx, sessionID, rec); err != nil {
		h.logger.Warn("failed to save booking session", "salon_id", salonID, "error", err)
	}
}

// Act handles POST /book/{salonID}: applies one wizard action and redirects back.
func (h *Handler) Act(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")
	if !tenancy.ValidSalonID(salonID) {
		http.NotFound(w, r)
		return
	}
	ctx := tenancy.WithSalonID(r.Context(), salonID)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	cfg, err := h.deps.Configs.Get(ctx, salonID)
	if err != nil {
		h.logger.Error("booking page config load failed", "salon_id", salonID, "error", err)
		h.renderError(w, r, http.StatusServiceUnavailable, "De online agenda is tijdelijk niet beschikbaar.")
		return
	}

	sessionID, rec := h.session(w, r, salonID)
	notifier := &pageNotifier{logger: h.logger}
	wz := h.newWizard(cfg, notifier)
	wz.Restore(rec.Snapshot)

	if err := h.apply(ctx, wz, cfg, r.PostForm); err != nil {
		rec.Flash = userMessage(err)
		if rec.Flash == "" {
			h.logger.Debug("ignored booking page action", "salon_id", salonID, "error", err)
		}
	} else {
		rec.Flash = ""
	}
	rec.Snapshot = wz.Snapshot()
	rec.Outbox = append(rec.Outbox, notifier.messages...)
	if err := h.deps.Sessions.Save(ctx, sessionID, rec); err != nil {
		h.logger.Error("failed to save booking session", "salon_id", salonID, "error", err)
		h.renderError(w, r, http.StatusServiceUnavailable, "Er ging iets mis. Probeer het opnieuw.")
		return
	}

	target := r.URL.Path
	if q := framingQuery(r.URL.Query()); q != "" {
		target += "?" + q
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) apply(ctx context.Context, wz *wizard.Wizard, cfg *salon.Config, form url.Values) error {
	switch form.Get("action") {
	case "select_service":
		if err := wz.SelectService(form.Get("service_id")); err != nil {
			return err
		}
		return wz.Next()
	case "select_date":
		date, err := hours.ParseDate(form.Get("date"), cfg.Location())
		if err != nil {
			return availability.ErrDateNotSelectable
		}
		if err := wz.SelectDate(date); err != nil {
			return err
		}
		return wz.LoadSlots(ctx)
	case "select_time":
		if err := wz.SelectTime(form.Get("time")); err != nil {
			return err
		}
		return wz.Next()
	case "details":
		details := validation.Details{
			Name:  strings.TrimSpace(form.Get("customer_name")),
			Phone: strings.TrimSpace(form.Get("customer_phone")),
			Email: strings.TrimSpace(form.Get("customer_email")),
		}
		if err := wz.SetDetails(details, strings.TrimSpace(form.Get("notes")), form.Get("staff_name")); err != nil {
			return err
		}
		return wz.Next()
	case "submit":
		_, err := wz.Submit(ctx)
		return err
	case "back":
		return wz.Back()
	case "reset":
		return wz.Reset()
	default:
		return wizard.ErrInvalidTransition
	}
}

func (h *Handler) newWizard(cfg *salon.Config, notifier wizard.Notifier) *wizard.Wizard {
	return wizard.New(wizard.Options{
		SalonID:       cfg.SalonID,
		Services:      cfg.Services,
		Staff:         cfg.StaffOrDefault(),
		Submitter:     h.deps.Submitter,
		Slots:         h.deps.Slots,
		Notifier:      notifier,
		Logger:        h.logger,
		InitialStatus: cfg.InitialStatus,
	})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request, salonID string) (string, *Record) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if _, perr := uuid.Parse(c.Value); perr == nil {
			rec, ok, err := h.deps.Sessions.Load(r.Context(), c.Value)
			if err != nil {
				h.logger.Warn("failed to load booking session", "salon_id", salonID, "error", err)
			}
			if ok && rec.SalonID == salonID {
				return c.Value, rec
			}
			return c.Value, &Record{SalonID: salonID}
		}
	}
	id := uuid.NewString()
	cookie := &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/book",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.deps.SecureCookies {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
		cookie.Partitioned = true
	}
	http.SetCookie(w, cookie)
	return id, &Record{SalonID: salonID}
}

func (h *Handler) view(ctx context.Context, r *http.Request, cfg *salon.Config, wz *wizard.Wizard, rec *Record) pageView {
	q := r.URL.Query()
	state := wz.State()
	draft := wz.Draft()
	v := pageView{
		SalonName: cfg.Name,
		Theme:     pick(q.Get("theme"), widget.DefaultTheme, "light", "dark"),
		Lang:      pick(q.Get("lang"), widget.DefaultLang, "nl", "en"),
		Query:     template.URL(framingQuery(q)),
		State:     state.String(),
		Step:      state.Step(),
		Staff:     wz.Staff(),
		Draft:     draft,
		Error:     rec.Flash,
		Completed: wz.Completed(),
	}
	if fc, err := widget.DecodeFrameConfig(q.Get("cfg")); err == nil {
		if accent, ok := fc["accent"].(string); ok && accentPattern.MatchString(accent) {
			v.Accent = accent
		}
	}
	for _, svc := range wz.Services() {
		v.Services = append(v.Services, serviceOption{
			Service:    svc,
			PriceLabel: locale.FormatPrice(svc.Price),
			Selected:   svc.ID == draft.Service.ID,
		})
	}
	if draft.HasService() {
		v.PriceLabel = locale.FormatPrice(draft.Service.Price)
	}
	if draft.HasDate() {
		v.DateLabel = locale.FormatDate(draft.Date)
	}

	if state == wizard.SelectingDateTime && h.deps.Dates != nil {
		dates, err := h.deps.Dates.Dates(ctx, cfg.SalonID)
		if err != nil {
			h.logger.Warn("failed to list booking dates", "salon_id", cfg.SalonID, "error", err)
		}
		selected := draft.DateString()
		for _, d := range dates {
			value := hours.FormatDate(d)
			v.Dates = append(v.Dates, dateOption{Value: value, Label: locale.FormatShortDate(d), Selected: value == selected})
		}
		if slotsDate, slots, degraded := wz.Slots(); slotsDate != "" && slotsDate == selected {
			v.Slots = slots
			v.Degraded = degraded
		}
	}
	if v.Completed != nil {
		if d, err := hours.ParseDate(v.Completed.Date, cfg.Location()); err == nil {
			v.DoneLabel = locale.FormatDate(d) + " om " + v.Completed.Time
		}
	}
	for _, raw := range rec.Outbox {
		var msg any
		if err := json.Unmarshal(raw, &msg); err == nil {
			v.Messages = append(v.Messages, msg)
		}
	}
	return v
}

func (h *Handler) render(w http.ResponseWriter, status int, v pageView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := h.tmpl.ExecuteTemplate(w, "page.html", v); err != nil {
		h.logger.Error("failed to render booking page", "error", err)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	errMsg, _ := widget.Encode(widget.WidgetError{Reason: msg})
	var decoded any
	_ = json.Unmarshal(errMsg, &decoded)
	h.render(w, status, pageView{
		Theme:    pick(r.URL.Query().Get("theme"), widget.DefaultTheme, "light", "dark"),
		Lang:     widget.DefaultLang,
		State:    "error",
		Error:    msg,
		Messages: []any{decoded},
	})
}

// setFrameHeaders restricts which pages may frame the booking page.
func (h *Handler) setFrameHeaders(w http.ResponseWriter, cfg *salon.Config) {
	w.Header().Set("Content-Security-Policy", "frame-ancestors "+frameAncestors(cfg.AllowedOrigins))
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
}

func frameAncestors(origins []string) string {
	if len(origins) == 0 {
		return "*"
	}
	parts := []string{"'self'"}
	for _, o := range origins {
		if n, err := widget.NormalizeOrigin(o); err == nil {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, " ")
}

// framingQuery keeps the widget parameters across redirects.
func framingQuery(q url.Values) string {
	out := url.Values{}
	for _, k := range []string{"theme", "lang", "v", "cfg"} {
		if v := q.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out.Encode()
}

func pick(value, def string, allowed ...string) string {
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	return def
}

// userMessage maps action errors to the Dutch text shown on the page. Stale
// or repeated form posts map to "".
func userMessage(err error) string {
	var subErr *submission.Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &subErr):
		return subErr.UserMessage()
	case errors.Is(err, submission.ErrInFlight), errors.Is(err, wizard.ErrSubmissionInFlight):
		return "Je boeking wordt al verstuurd."
	case errors.Is(err, wizard.ErrInvalidTransition):
		return ""
	case errors.Is(err, availability.ErrDateNotSelectable):
		return "Op deze datum kun je niet online boeken."
	case errors.Is(err, validation.ErrInvalidName),
		errors.Is(err, validation.ErrInvalidPhone),
		errors.Is(err, validation.ErrInvalidEmail),
		errors.Is(err, wizard.ErrServiceRequired),
		errors.Is(err, wizard.ErrUnknownService),
		errors.Is(err, wizard.ErrDateRequired),
		errors.Is(err, wizard.ErrTimeRequired),
		errors.Is(err, wizard.ErrTimeUnavailable):
		return capitalize(err.Error()) + "."
	default:
		return "Er ging iets mis. Probeer het opnieuw."
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type pageNotifier struct {
	logger   *logging.Logger
	messages []json.RawMessage
}

func (n *pageNotifier) BookingSubmitted(_ context.Context, result wizard.Result) {
	msg, err := widget.NewBookingSubmitted(result)
	if err != nil {
		n.logger.Error("failed to encode booking message", "error", err)
		return
	}
	raw, err := widget.Encode(msg)
	if err != nil {
		n.logger.Error("failed to encode booking message", "error", err)
		return
	}
	n.messages = append(n.messages, raw)
}
