//go:build js && wasm

package main

import (
	"sync"
	"syscall/js"

	"github.com/salonbooker/salonbooker/internal/widget"
)

// handleTable maps live widget handles to the JS objects returned by init, so
// a repeated init for the same container yields the identical object.
type handleTable struct {
	mu      sync.Mutex
	objects map[*widget.Handle]js.Value
}

func newHandleTable() *handleTable {
	return &handleTable{objects: make(map[*widget.Handle]js.Value)}
}

func (t *handleTable) wrap(w *widget.Handle) js.Value {
	t.mu.Lock()
	defer t.mu.Unlock()
	if obj, ok := t.objects[w]; ok {
		return obj
	}
	obj := js.ValueOf(map[string]any{
		"src":     w.Src(),
		"salonId": w.SalonID(),
		"destroy": js.FuncOf(func(this js.Value, args []js.Value) any {
			w.Destroy()
			t.forget(w)
			return nil
		}),
		"destroyed": js.FuncOf(func(this js.Value, args []js.Value) any {
			return w.Destroyed()
		}),
	})
	t.objects[w] = obj
	return obj
}

func (t *handleTable) wrapAll(handles []*widget.Handle) js.Value {
	out := make([]any, 0, len(handles))
	for _, w := range handles {
		out = append(out, t.wrap(w))
	}
	return js.ValueOf(out)
}

func (t *handleTable) forget(w *widget.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.objects, w)
}

// prune drops entries whose widget was destroyed through destroyAll.
func (t *handleTable) prune() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for w := range t.objects {
		if w.Destroyed() {
			delete(t.objects, w)
		}
	}
}
