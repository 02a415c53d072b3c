//go:build js && wasm

// Command widget-wasm exposes the booking widget host to the embedding page as
// window.SalonBooker.
package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/salonbooker/salonbooker/internal/widget"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

func main() {
	logger := logging.New("info")
	doc := newDocument()
	host := widget.NewHost(doc, logger, nil)
	callbacks := widget.NewCallbackTable()
	handles := newHandleTable()
	baseURL := defaultBaseURL()

	api := map[string]any{
		"version": widget.ProtocolVersion,
		"init": js.FuncOf(func(this js.Value, args []js.Value) any {
			if len(args) == 0 {
				return js.Null()
			}
			w, err := host.Init(optionsFromJS(doc, args[0], baseURL))
			if err != nil {
				return js.Null()
			}
			return handles.wrap(w)
		}),
		"autoInit": js.FuncOf(func(this js.Value, args []js.Value) any {
			mounted, err := host.AutoInit(baseURL, callbacks)
			if err != nil {
				logger.Warn("widget auto-init incomplete", "error", err)
			}
			return handles.wrapAll(mounted)
		}),
		"onBooking": js.FuncOf(func(this js.Value, args []js.Value) any {
			if len(args) == 2 {
				fn := args[1]
				callbacks.OnBooking(args[0].String(), func(data json.RawMessage) { fn.Invoke(parseJSON(data)) })
			}
			return nil
		}),
		"onError": js.FuncOf(func(this js.Value, args []js.Value) any {
			if len(args) == 2 {
				fn := args[1]
				callbacks.OnError(args[0].String(), func(err error) { fn.Invoke(err.Error()) })
			}
			return nil
		}),
		"destroyAll": js.FuncOf(func(this js.Value, args []js.Value) any {
			host.DestroyAll()
			handles.prune()
			return nil
		}),
	}
	js.Global().Set("SalonBooker", js.ValueOf(api))

	if _, err := host.AutoInit(baseURL, callbacks); err != nil {
		logger.Warn("widget auto-init incomplete", "error", err)
	}
	select {}
}

// defaultBaseURL reads data-base-url from the loader script, falling back to
// the page origin.
func defaultBaseURL() string {
	doc := js.Global().Get("document")
	script := doc.Call("querySelector", "script[data-salonbooker-wasm]")
	if !script.IsNull() {
		if v := script.Call("getAttribute", "data-base-url"); !v.IsNull() && v.String() != "" {
			return v.String()
		}
	}
	return js.Global().Get("location").Get("origin").String() + "/book/"
}

func optionsFromJS(doc *jsDocument, v js.Value, baseURL string) widget.Options {
	opts := widget.Options{
		SalonID: stringField(v, "salonId"),
		BaseURL: stringField(v, "baseUrl"),
		Theme:   stringField(v, "theme"),
		Lang:    stringField(v, "lang"),
	}
	if opts.BaseURL == "" {
		opts.BaseURL = baseURL
	}
	switch c := v.Get("container"); c.Type() {
	case js.TypeString:
		opts.Container = c.String()
	case js.TypeObject:
		opts.Element = doc.wrap(c)
	}
	if h := v.Get("height"); h.Type() == js.TypeNumber {
		opts.Height = h.Int()
	}
	if cfg := v.Get("config"); cfg.Type() == js.TypeObject {
		raw := js.Global().Get("JSON").Call("stringify", cfg).String()
		var m map[string]any
		if err := json.Unmarshal([]byte(raw), &m); err == nil {
			opts.Config = m
		}
	}
	if fn := v.Get("onBooking"); fn.Type() == js.TypeFunction {
		opts.OnBooking = func(data json.RawMessage) { fn.Invoke(parseJSON(data)) }
	}
	if fn := v.Get("onError"); fn.Type() == js.TypeFunction {
		opts.OnError = func(err error) {
			var msg string
			if err != nil {
				msg = err.Error()
			}
			fn.Invoke(js.Global().Get("Error").New(msg))
		}
	}
	return opts
}

func stringField(v js.Value, name string) string {
	f := v.Get(name)
	if f.Type() != js.TypeString {
		return ""
	}
	return f.String()
}

func parseJSON(data json.RawMessage) js.Value {
	if len(data) == 0 {
		return js.Null()
	}
	return js.Global().Get("JSON").Call("parse", string(data))
}
