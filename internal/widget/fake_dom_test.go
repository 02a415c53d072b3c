package widget

import (
	"strings"
	"sync"
)

type fakeDocument struct {
	origin   string
	elements []*fakeElement

	mu        sync.Mutex
	listeners map[int]func(origin string, data []byte)
	nextID    int
}

func newFakeDocument(origin string, elements ...*fakeElement) *fakeDocument {
	return &fakeDocument{origin: origin, elements: elements, listeners: map[int]func(string, []byte){}}
}

func (d *fakeDocument) Origin() string { return d.origin }

func (d *fakeDocument) QuerySelector(selector string) (Element, bool) {
	for _, el := range d.elements {
		if "#"+el.key == selector {
			return el, true
		}
	}
	return nil, false
}

func (d *fakeDocument) QuerySelectorAll(selector string) []Element {
	attr := strings.Trim(selector, "[]")
	var out []Element
	for _, el := range d.elements {
		if _, ok := el.attrs[attr]; ok {
			out = append(out, el)
		}
	}
	return out
}

func (d *fakeDocument) AddMessageListener(fn func(origin string, data []byte)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners, id)
	}
}

// post delivers a message event to every listener, like window.postMessage.
func (d *fakeDocument) post(origin, data string) {
	d.mu.Lock()
	fns := make([]func(string, []byte), 0, len(d.listeners))
	for _, fn := range d.listeners {
		fns = append(fns, fn)
	}
	d.mu.Unlock()
	for _, fn := range fns {
		fn(origin, []byte(data))
	}
}

func (d *fakeDocument) listenerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners)
}

type firedEvent struct {
	name   string
	detail string
}

type fakeElement struct {
	key    string
	attrs  map[string]string
	frames []*fakeFrame
	events []firedEvent
	clears int

	// onDispatch runs synchronously inside DispatchEvent, like a DOM listener.
	onDispatch func(name string)
}

func newFakeElement(key string, attrs map[string]string) *fakeElement {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return &fakeElement{key: key, attrs: attrs}
}

func (e *fakeElement) Key() string { return e.key }

func (e *fakeElement) Attribute(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *fakeElement) AppendFrame(src, title string, height int) Frame {
	f := &fakeFrame{src: src, title: title, height: height}
	e.frames = append(e.frames, f)
	return f
}

func (e *fakeElement) Clear() {
	e.frames = nil
	e.clears++
}

func (e *fakeElement) DispatchEvent(name string, detail []byte) {
	e.events = append(e.events, firedEvent{name: name, detail: string(detail)})
	if e.onDispatch != nil {
		e.onDispatch(name)
	}
}

type fakeFrame struct {
	src    string
	title  string
	height int
}

func (f *fakeFrame) SetHeight(px int) { f.height = px }
