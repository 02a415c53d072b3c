//go:build js && wasm

package main

import (
	"strconv"
	"syscall/js"

	"github.com/salonbooker/salonbooker/internal/widget"
)

const keyAttr = "data-salonbooker-key"

type jsDocument struct {
	window js.Value
	doc    js.Value
	next   int
}

func newDocument() *jsDocument {
	w := js.Global()
	return &jsDocument{window: w, doc: w.Get("document")}
}

func (d *jsDocument) Origin() string {
	return d.window.Get("location").Get("origin").String()
}

func (d *jsDocument) QuerySelector(selector string) (widget.Element, bool) {
	el := d.doc.Call("querySelector", selector)
	if el.IsNull() || el.IsUndefined() {
		return nil, false
	}
	return d.wrap(el), true
}

func (d *jsDocument) QuerySelectorAll(selector string) []widget.Element {
	list := d.doc.Call("querySelectorAll", selector)
	n := list.Get("length").Int()
	out := make([]widget.Element, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, d.wrap(list.Index(i)))
	}
	return out
}

func (d *jsDocument) AddMessageListener(fn func(origin string, data []byte)) func() {
	jsonAPI := js.Global().Get("JSON")
	listener := js.FuncOf(func(this js.Value, args []js.Value) any {
		ev := args[0]
		data := ev.Get("data")
		var raw string
		if data.Type() == js.TypeString {
			raw = data.String()
		} else {
			encoded := jsonAPI.Call("stringify", data)
			if encoded.Type() != js.TypeString {
				return nil
			}
			raw = encoded.String()
		}
		fn(ev.Get("origin").String(), []byte(raw))
		return nil
	})
	d.window.Call("addEventListener", "message", listener)
	return func() {
		d.window.Call("removeEventListener", "message", listener)
		listener.Release()
	}
}

// wrap tags el with a stable key so repeated lookups map to one widget.
func (d *jsDocument) wrap(el js.Value) *jsElement {
	key := el.Call("getAttribute", keyAttr)
	if key.IsNull() {
		d.next++
		key = js.ValueOf("sb-" + strconv.Itoa(d.next))
		el.Call("setAttribute", keyAttr, key)
	}
	return &jsElement{doc: d, el: el, key: key.String()}
}

type jsElement struct {
	doc *jsDocument
	el  js.Value
	key string
}

func (e *jsElement) Key() string { return e.key }

func (e *jsElement) Attribute(name string) (string, bool) {
	v := e.el.Call("getAttribute", name)
	if v.IsNull() {
		return "", false
	}
	return v.String(), true
}

func (e *jsElement) AppendFrame(src, title string, height int) widget.Frame {
	frame := e.doc.doc.Call("createElement", "iframe")
	frame.Set("src", src)
	frame.Set("title", title)
	frame.Call("setAttribute", "loading", "lazy")
	style := frame.Get("style")
	style.Set("width", "100%")
	style.Set("border", "0")
	f := &jsFrame{el: frame}
	f.SetHeight(height)
	e.el.Call("appendChild", frame)
	return f
}

func (e *jsElement) Clear() {
	for {
		child := e.el.Get("firstChild")
		if child.IsNull() {
			return
		}
		e.el.Call("removeChild", child)
	}
}

func (e *jsElement) DispatchEvent(name string, detail []byte) {
	init := map[string]any{"bubbles": true}
	if len(detail) > 0 {
		init["detail"] = js.Global().Get("JSON").Call("parse", string(detail))
	}
	ev := js.Global().Get("CustomEvent").New(name, init)
	e.el.Call("dispatchEvent", ev)
}

type jsFrame struct {
	el js.Value
}

func (f *jsFrame) SetHeight(px int) {
	f.el.Get("style").Set("height", strconv.Itoa(px)+"px")
}
