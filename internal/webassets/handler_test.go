package webassets

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/salonbooker/salonbooker/internal/widget"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

func TestHandleEmbedJS(t *testing.T) {
	h := NewHandler("", logging.Discard())
	req := httptest.NewRequest(http.MethodGet, "/embed.js", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/javascript" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "BOOKING_SUBMITTED") {
		t.Fatalf("embed script missing message handling")
	}
}

func TestEmbedJSMatchesGoHostRules(t *testing.T) {
	h := NewHandler("", logging.Discard())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/embed.js", nil))
	body := rr.Body.String()

	for _, want := range []string{
		"MAX_HEIGHT = " + strconv.Itoa(widget.MaxHeight) + ";",
		"Math.min(msg.height, MAX_HEIGHT)",
		"originOf(src)].filter(Boolean)",
		`typeof msg.data !== "object"`,
		"if (!handle.destroyed) {",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("embed script missing %q", want)
		}
	}
}

func TestWasmNotConfigured(t *testing.T) {
	h := NewHandler("", logging.Discard())
	req := httptest.NewRequest(http.MethodGet, "/"+WasmFile, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestServesWasmBuild(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, WasmFile), []byte("\x00asm"), 0o644); err != nil {
		t.Fatalf("write wasm: %v", err)
	}
	h := NewHandler(dir, logging.Discard())

	req := httptest.NewRequest(http.MethodGet, "/"+WasmFile, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/wasm" {
		t.Fatalf("unexpected content type %q", ct)
	}

	req = httptest.NewRequest(http.MethodGet, "/wasm_exec.js", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing shim, got %d", rr.Code)
	}
}
