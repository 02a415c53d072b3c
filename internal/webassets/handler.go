// Package webassets serves the files a salon's website loads to embed the
// booking widget.
package webassets

import (
	_ "embed"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/salonbooker/salonbooker/pkg/logging"
)

//go:embed static/embed.js
var embedJS []byte

// WasmFile is the file name of the compiled Go widget host.
const WasmFile = "salonbooker.wasm"

// Handler serves the widget loader and, when a build directory is configured,
// the WebAssembly host with its wasm_exec.js shim.
type Handler struct {
	wasmDir string
	logger  *logging.Logger
	router  chi.Router
}

// NewHandler creates an asset handler. wasmDir may be empty.
func NewHandler(wasmDir string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	h := &Handler{wasmDir: wasmDir, logger: logger}
	h.router = h.Routes()
	return h
}

// Routes returns the asset routes relative to their mount point.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/embed.js", h.HandleEmbedJS)
	r.Get("/"+WasmFile, h.serveBuild(WasmFile, "application/wasm"))
	r.Get("/wasm_exec.js", h.serveBuild("wasm_exec.js", "application/javascript"))
	return r
}

// ServeHTTP lets the handler be mounted directly.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// HandleEmbedJS serves the embeddable widget JavaScript.
func (h *Handler) HandleEmbedJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_, _ = w.Write(embedJS)
}

func (h *Handler) serveBuild(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.wasmDir == "" {
			http.NotFound(w, r)
			return
		}
		path := filepath.Join(h.wasmDir, name)
		if _, err := os.Stat(path); err != nil {
			h.logger.Warn("widget asset missing", "file", path, "error", err)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		http.ServeFile(w, r, path)
	}
}
