package widget

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Declarative embed attributes.
const (
	AttrSalon     = "data-salonbooker"
	AttrTheme     = "data-theme"
	AttrLang      = "data-lang"
	AttrHeight    = "data-height"
	AttrOnBooking = "data-on-booking"
	AttrOnError   = "data-on-error"
)

// CallbackTable maps the names used in data-on-booking and data-on-error to
// functions registered by the embedding page.
type CallbackTable struct {
	mu      sync.RWMutex
	booking map[string]func(json.RawMessage)
	errs    map[string]func(error)
}

func NewCallbackTable() *CallbackTable {
	return &CallbackTable{
		booking: make(map[string]func(json.RawMessage)),
		errs:    make(map[string]func(error)),
	}
}

// OnBooking registers a booking callback under name.
func (t *CallbackTable) OnBooking(name string, fn func(json.RawMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.booking[name] = fn
}

// OnError registers an error callback under name.
func (t *CallbackTable) OnError(name string, fn func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errs[name] = fn
}

func (t *CallbackTable) bookingFunc(name string) (func(json.RawMessage), bool) {
	if t == nil {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.booking[name]
	return fn, ok
}

func (t *CallbackTable) errorFunc(name string) (func(error), bool) {
	if t == nil {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.errs[name]
	return fn, ok
}

// AutoInit mounts a widget in every element carrying data-salonbooker. Elements
// with bad attributes are skipped and their errors joined; the others still
// mount.
func (h *Host) AutoInit(baseURL string, callbacks *CallbackTable) ([]*Handle, error) {
	var (
		handles []*Handle
		errs    []error
	)
	for _, el := range h.doc.QuerySelectorAll("[" + AttrSalon + "]") {
		opts, err := optionsFromElement(el, baseURL, callbacks)
		if err != nil {
			h.logger.Error("widget auto-init skipped", "container", el.Key(), "error", err)
			errs = append(errs, err)
			continue
		}
		w, err := h.Init(opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		handles = append(handles, w)
	}
	return handles, errors.Join(errs...)
}

func optionsFromElement(el Element, baseURL string, callbacks *CallbackTable) (Options, error) {
	salonID, _ := el.Attribute(AttrSalon)
	opts := Options{
		Element: el,
		SalonID: strings.TrimSpace(salonID),
		BaseURL: baseURL,
	}
	opts.Theme, _ = el.Attribute(AttrTheme)
	opts.Lang, _ = el.Attribute(AttrLang)

	if raw, ok := el.Attribute(AttrHeight); ok && strings.TrimSpace(raw) != "" {
		height, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(raw), "px"))
		if err != nil || height <= 0 {
			return Options{}, fmt.Errorf("%w: %s=%q", ErrInvalidOptions, AttrHeight, raw)
		}
		opts.Height = height
	}
	if name, ok := el.Attribute(AttrOnBooking); ok && name != "" {
		fn, found := callbacks.bookingFunc(name)
		if !found {
			return Options{}, fmt.Errorf("%w: %s callback %q is not registered", ErrInvalidOptions, AttrOnBooking, name)
		}
		opts.OnBooking = fn
	}
	if name, ok := el.Attribute(AttrOnError); ok && name != "" {
		fn, found := callbacks.errorFunc(name)
		if !found {
			return Options{}, fmt.Errorf("%w: %s callback %q is not registered", ErrInvalidOptions, AttrOnError, name)
		}
		opts.OnError = fn
	}
	return opts, nil
}
