package widget

// Document is the host page as the widget sees it.
type Document interface {
	// Origin is the page's own origin.
	Origin() string
	QuerySelector(selector string) (Element, bool)
	QuerySelectorAll(selector string) []Element
	// AddMessageListener subscribes to window message events and returns the
	// function that unsubscribes.
	AddMessageListener(fn func(origin string, data []byte)) (remove func())
}

// Element is a container the widget is mounted in.
type Element interface {
	// Key identifies the element for the lifetime of the page.
	Key() string
	Attribute(name string) (string, bool)
	// AppendFrame inserts the booking iframe.
	AppendFrame(src, title string, height int) Frame
	// Clear removes all child nodes.
	Clear()
	// DispatchEvent fires a bubbling CustomEvent with detail.
	DispatchEvent(name string, detail []byte)
}

// Frame is the inserted iframe.
type Frame interface {
	SetHeight(px int)
}
