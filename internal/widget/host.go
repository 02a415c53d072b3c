package widget

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/salonbooker/salonbooker/internal/observability/metrics"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

// BookingEvent is the DOM event fired on the container for BOOKING_SUBMITTED.
const BookingEvent = "salonbooker:booking"

var (
	// ErrContainerNotFound is returned when the container selector matches nothing.
	ErrContainerNotFound = errors.New("widget: container not found")

	// ErrInvalidOptions is returned for unusable init options.
	ErrInvalidOptions = errors.New("widget: invalid options")
)

// Options configures one widget.
type Options struct {
	// Container is a CSS selector; Element takes precedence when set.
	Container string
	Element   Element

	SalonID string
	BaseURL string
	Theme   string
	Lang    string
	Height  int
	Config  map[string]any

	OnBooking func(data json.RawMessage)
	OnError   func(err error)
}

// Host owns every widget on one page.
type Host struct {
	doc     Document
	logger  *logging.Logger
	metrics *metrics.BookingMetrics

	mu      sync.Mutex
	widgets map[string]*Handle
	order   []string
}

// NewHost creates an empty registry for doc. metrics may be nil.
func NewHost(doc Document, logger *logging.Logger, m *metrics.BookingMetrics) *Host {
	if logger == nil {
		logger = logging.Default()
	}
	return &Host{
		doc:     doc,
		logger:  logger,
		metrics: m,
		widgets: make(map[string]*Handle),
	}
}

// Init mounts a widget. Calling it again for the same container returns the
// existing handle. On any configuration error nothing is created; the error is
// logged, passed to OnError and returned.
func (h *Host) Init(opts Options) (*Handle, error) {
	container, err := h.resolve(opts)
	if err != nil {
		return nil, h.fail(opts, err)
	}

	if existing, ok := h.Get(container); ok {
		return existing, nil
	}
	policy, src, err := h.prepare(opts)
	if err != nil {
		return nil, h.fail(opts, err)
	}

	height := opts.Height
	if height == 0 {
		height = DefaultHeight
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.widgets[container.Key()]; ok {
		return existing, nil
	}
	w := &Handle{
		host:      h,
		key:       container.Key(),
		container: container,
		policy:    policy,
		opts:      opts,
		src:       src,
	}
	w.frame = container.AppendFrame(src, "Online afspraak maken", height)
	w.remove = h.doc.AddMessageListener(func(origin string, data []byte) {
		w.Deliver(origin, data)
	})

	h.widgets[w.key] = w
	h.order = append(h.order, w.key)
	h.logger.Debug("widget initialized", "salon_id", opts.SalonID, "container", w.key)
	return w, nil
}

func (h *Host) prepare(opts Options) (*OriginPolicy, string, error) {
	if opts.SalonID == "" {
		return nil, "", fmt.Errorf("%w: salon id is required", ErrInvalidOptions)
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Host == "" {
		return nil, "", fmt.Errorf("%w: base url %q", ErrInvalidOptions, opts.BaseURL)
	}
	if opts.Height < 0 {
		return nil, "", fmt.Errorf("%w: negative height", ErrInvalidOptions)
	}
	if opts.Height > MaxHeight {
		return nil, "", fmt.Errorf("%w: height above %d", ErrInvalidOptions, MaxHeight)
	}
	origins := []string{opts.BaseURL}
	if page := h.doc.Origin(); page != "" {
		if _, err := NormalizeOrigin(page); err == nil {
			origins = append(origins, page)
		} else {
			h.logger.Debug("page origin not allowed", "origin", page, "error", err)
		}
	}
	policy, err := NewOriginPolicy(origins...)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	src, err := FrameURL(opts.BaseURL, FrameOptions{
		SalonID: opts.SalonID,
		Theme:   opts.Theme,
		Lang:    opts.Lang,
		Config:  opts.Config,
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return policy, src, nil
}

func (h *Host) resolve(opts Options) (Element, error) {
	if opts.Element != nil {
		return opts.Element, nil
	}
	if opts.Container == "" {
		return nil, fmt.Errorf("%w: container is required", ErrInvalidOptions)
	}
	el, ok := h.doc.QuerySelector(opts.Container)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContainerNotFound, opts.Container)
	}
	return el, nil
}

func (h *Host) fail(opts Options, err error) error {
	h.logger.Error("widget init failed", "salon_id", opts.SalonID, "error", err)
	if opts.OnError != nil {
		opts.OnError(err)
	}
	return err
}

// Get returns the live widget mounted in container.
func (h *Host) Get(container Element) (*Handle, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.widgets[container.Key()]
	return w, ok
}

// Widgets lists live widgets in init order.
func (h *Host) Widgets() []*Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Handle, 0, len(h.order))
	for _, k := range h.order {
		out = append(out, h.widgets[k])
	}
	return out
}

// DestroyAll tears down every widget.
func (h *Host) DestroyAll() {
	for _, w := range h.Widgets() {
		w.Destroy()
	}
}

func (h *Host) unregister(w *Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.widgets[w.key] != w {
		return
	}
	delete(h.widgets, w.key)
	for i, k := range h.order {
		if k == w.key {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Handle controls one mounted widget.
type Handle struct {
	host      *Host
	key       string
	container Element
	frame     Frame
	policy    *OriginPolicy
	opts      Options
	src       string
	remove    func()

	mu        sync.Mutex
	destroyed bool
}

// Src is the iframe src.
func (w *Handle) Src() string { return w.src }

// SalonID is the salon the widget books for.
func (w *Handle) SalonID() string { return w.opts.SalonID }

// Container is the element the widget is mounted in.
func (w *Handle) Container() Element { return w.container }

// Destroyed reports whether Destroy has run.
func (w *Handle) Destroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

// Deliver handles one message event. It reports whether the message was
// accepted; messages from foreign origins, malformed payloads and anything
// arriving after Destroy are dropped. DOM events and callbacks run without
// the handle lock held, so a listener may destroy the widget.
func (w *Handle) Deliver(origin string, data []byte) bool {
	if w.Destroyed() {
		return false
	}
	if !w.policy.Allows(origin) {
		w.host.metrics.ObserveWidgetMessage("foreign_origin", false)
		return false
	}
	msg, err := DecodeMessage(data)
	if err != nil {
		w.host.logger.Debug("widget message dropped", "salon_id", w.opts.SalonID, "error", err)
		w.host.metrics.ObserveWidgetMessage("malformed", false)
		return false
	}
	if _, ok := msg.(Unknown); ok {
		w.host.metrics.ObserveWidgetMessage("unknown", false)
		return false
	}

	w.host.metrics.ObserveWidgetMessage(msg.MessageType(), true)
	switch m := msg.(type) {
	case BookingSubmitted:
		if w.opts.OnBooking != nil {
			w.opts.OnBooking(m.Data)
		}
		if !w.Destroyed() {
			w.container.DispatchEvent(BookingEvent, m.Data)
		}
	case Resize:
		w.frame.SetHeight(m.Height)
	case WidgetError:
		w.host.logger.Error("booking widget error", "salon_id", w.opts.SalonID, "error", m.Reason)
		if w.opts.OnError != nil {
			w.opts.OnError(errors.New(m.Reason))
		}
	}
	return true
}

// Destroy removes the listener, clears the container and unregisters the
// widget. Repeated calls are no-ops.
func (w *Handle) Destroy() {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.destroyed = true
	if w.remove != nil {
		w.remove()
	}
	w.container.Clear()
	w.mu.Unlock()

	w.host.unregister(w)
	w.host.logger.Debug("widget destroyed", "salon_id", w.opts.SalonID, "container", w.key)
}
