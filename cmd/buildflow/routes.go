package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-rod/rod"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/buildflow/buildflow/auth"
	"github.com/buildflow/buildflow/bridge"
	"github.com/buildflow/buildflow/browser"
	"github.com/buildflow/buildflow/designs"
	"github.com/buildflow/buildflow/editor"
	"github.com/buildflow/buildflow/export"
	"github.com/buildflow/buildflow/idgen"
	"github.com/buildflow/buildflow/kit"
	"github.com/buildflow/buildflow/markup"
	"github.com/buildflow/buildflow/netguard"
	"github.com/buildflow/buildflow/observability"
	"github.com/buildflow/buildflow/preview"
	"github.com/buildflow/buildflow/shield"
	"github.com/buildflow/buildflow/webimport"
)

type serverConfig struct {
	cfg      *Config
	store    *designs.Store
	editor   *editor.Service
	exporter *export.Exporter
	importer *webimport.Importer
	keys     *auth.Keys
	limiter  *shield.RateLimiter
	browser  *browser.Manager
	metrics  *observability.MetricsManager
	logger   *slog.Logger
}

type server struct {
	serverConfig

	mu       sync.Mutex
	previews map[string]*preview.Session
}

func newServer(cfg serverConfig) *server {
	return &server{
		serverConfig: cfg,
		previews:     make(map[string]*preview.Session),
	}
}

func (s *server) router(mcpSrv *mcp.Server) http.Handler {
	r := chi.NewRouter()

	hl := httplog.NewLogger("buildflow", httplog.Options{
		JSON:    true,
		Concise: true,
	})
	r.Use(httplog.RequestLogger(hl))
	r.Use(requestID)
	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
	r.Use(shield.MaxJSONBody(1 << 20))
	if s.limiter != nil {
		r.Use(s.limiter.Middleware)
	}
	r.Use(auth.Middleware(s.keys))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		if !s.cfg.Auth.Disabled {
			r.Use(auth.Require)
		}

		r.Handle("/mcp", mcp.NewStreamableHTTPHandler(
			func(*http.Request) *mcp.Server { return mcpSrv }, nil))

		// API keys.
		r.Post("/api/keys", s.handleCreateKey)
		r.Delete("/api/keys/{name}", s.handleRevokeKey)

		// Import.
		r.Post("/api/import", s.handleImport)

		// Designs.
		r.Route("/api/designs", func(r chi.Router) {
			r.Get("/", s.handleListDesigns)
			r.Post("/", s.handleCreateDesign)

			r.Route("/{designID}", func(r chi.Router) {
				r.Get("/", s.handleGetDesign)
				r.Put("/", s.handleRenameDesign)
				r.Delete("/", s.handleDeleteDesign)
				r.Post("/close", s.handleCloseSession)

				r.Get("/state", s.handleState)
				r.Post("/undo", s.mutation("undo", func(sess *editor.Session, _ json.RawMessage) (bool, error) {
					return sess.Undo(), nil
				}))
				r.Post("/redo", s.mutation("redo", func(sess *editor.Session, _ json.RawMessage) (bool, error) {
					return sess.Redo(), nil
				}))
				r.Post("/merge", s.handleMerge)

				r.Route("/elements/{elementID}", func(r chi.Router) {
					r.Post("/classes", s.elementMutation("set_classes", func(sess *editor.Session, id string, body elementBody) bool {
						return sess.SetClasses(id, body.Classes)
					}))
					r.Post("/classes/add", s.elementMutation("add_class", func(sess *editor.Session, id string, body elementBody) bool {
						return sess.AddClass(id, body.Class)
					}))
					r.Post("/classes/remove", s.elementMutation("remove_class", func(sess *editor.Session, id string, body elementBody) bool {
						return sess.RemoveClass(id, body.Class)
					}))
					r.Post("/text", s.elementMutation("set_text", func(sess *editor.Session, id string, body elementBody) bool {
						return sess.SetText(id, body.Text, body.OldText)
					}))
					r.Post("/attribute", s.elementMutation("set_attribute", func(sess *editor.Session, id string, body elementBody) bool {
						return sess.SetAttribute(id, body.Name, body.Value)
					}))
					r.Post("/style", s.elementMutation("set_inline_style", func(sess *editor.Session, id string, body elementBody) bool {
						return sess.SetInlineStyle(id, body.Property, body.Value)
					}))
					r.Post("/replace", s.elementMutation("replace_element", func(sess *editor.Session, id string, body elementBody) bool {
						return sess.ReplaceElement(id, body.Markup)
					}))
					r.Post("/insert-after", s.elementMutation("insert_after", func(sess *editor.Session, id string, body elementBody) bool {
						return sess.InsertAfter(id, body.Markup)
					}))
					r.Post("/fragment", s.handleFragment)
					r.Post("/move", s.elementMutation("move_element", func(sess *editor.Session, id string, body elementBody) bool {
						pos := markup.After
						if body.Position == "before" {
							pos = markup.Before
						}
						return sess.MoveElement(id, body.TargetID, pos)
					}))
					r.Post("/move-up", s.elementMutation("move_up", func(sess *editor.Session, id string, _ elementBody) bool {
						return sess.MoveUp(id)
					}))
					r.Post("/move-down", s.elementMutation("move_down", func(sess *editor.Session, id string, _ elementBody) bool {
						return sess.MoveDown(id)
					}))
					r.Delete("/", s.elementMutation("remove_element", func(sess *editor.Session, id string, _ elementBody) bool {
						return sess.RemoveElement(id)
					}))
					r.Post("/select", s.handleSelect)
					r.Post("/scroll-to", s.handleScrollTo)
				})

				// Preview lifecycle.
				r.Post("/preview", s.handleOpenPreview)
				r.Delete("/preview", s.handleClosePreview)
				r.Post("/preview/refresh", s.handleRefreshPreview)

				// Exports.
				r.Get("/export/html", s.handleExportHTML)
				r.Get("/export/markdown", s.handleExportMarkdown)
				r.Get("/export/pdf", s.handleExportPDF)
				r.Get("/export/png", s.handleExportPNG)
			})
		})
	})

	return r
}

// requestID tags every request context so the trace driver and logs can
// correlate.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := kit.WithRequestID(r.Context(), idgen.New())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// --- designs ---

func (s *server) handleListDesigns(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 200, list)
}

func (s *server) handleCreateDesign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Document string `json:"document"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}
	if req.Name == "" {
		writeError(w, 400, fmt.Errorf("name is required"))
		return
	}
	if req.Document == "" {
		req.Document = `<main class="min-h-screen"></main>`
	}
	id, err := s.store.Create(r.Context(), req.Name, editor.Sanitize(req.Document))
	if err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 201, map[string]string{"id": id, "name": req.Name})
}

func (s *server) handleGetDesign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "designID")
	sess, err := s.editor.Open(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.metrics.RecordSimple(observability.MetricTaggedElements,
		float64(strings.Count(sess.Document(), markup.IDAttr+`="`)), "count")
	writeJSON(w, 200, map[string]any{
		"id":       id,
		"document": sess.Document(),
		"state":    sess.State(),
	})
}

func (s *server) handleRenameDesign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "designID")
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}
	if err := s.store.Rename(r.Context(), id, req.Name); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"id": id, "name": req.Name})
}

func (s *server) handleDeleteDesign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "designID")
	s.closePreview(id)
	s.editor.Close(id)
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "deleted"})
}

func (s *server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "designID")
	s.closePreview(id)
	s.editor.Close(id)
	writeJSON(w, 200, map[string]string{"status": "closed"})
}

func (s *server) handleState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "designID")
	sess, err := s.editor.Open(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, sess.State())
}

// --- mutations ---

// elementBody is the union of all element mutation request fields. Each
// endpoint reads the fields it needs.
type elementBody struct {
	Classes  string `json:"classes"`
	Class    string `json:"class"`
	Text     string `json:"text"`
	OldText  string `json:"old_text"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	Property string `json:"property"`
	Markup   string `json:"markup"`
	TargetID string `json:"target_id"`
	Position string `json:"position"`
}

func (s *server) elementMutation(action string, apply func(*editor.Session, string, elementBody) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		elementID := chi.URLParam(r, "elementID")
		s.mutation(action, func(sess *editor.Session, raw json.RawMessage) (bool, error) {
			var body elementBody
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &body); err != nil {
					return false, fmt.Errorf("decode body: %w", err)
				}
			}
			return apply(sess, elementID, body), nil
		})(w, r)
	}
}

func (s *server) mutation(action string, apply func(*editor.Session, json.RawMessage) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		designID := chi.URLParam(r, "designID")

		raw, err := netguard.LimitedReadAll(r.Body, 1<<20)
		if err != nil {
			writeError(w, 400, err)
			return
		}

		start := time.Now()
		var applyErr error
		changed, doc, err := s.editor.Apply(r.Context(), designID, action, func(sess *editor.Session) bool {
			ok, aerr := apply(sess, raw)
			applyErr = aerr
			return ok
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if applyErr != nil {
			writeError(w, 400, applyErr)
			return
		}

		s.metrics.RecordSimple(observability.MetricMutationDurationMs,
			float64(time.Since(start).Milliseconds()), "ms")
		if changed {
			s.metrics.RecordSimple(observability.MetricDocumentBytes, float64(len(doc)), "bytes")
		}
		writeJSON(w, 200, map[string]any{"changed": changed, "document": doc})
	}
}

func (s *server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Document string `json:"document"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}
	designID := chi.URLParam(r, "designID")
	changed, doc, err := s.editor.Apply(r.Context(), designID, "merge_document", func(sess *editor.Session) bool {
		return sess.MergeDocument(req.Document)
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.renderPreview(designID, doc)
	writeJSON(w, 200, map[string]any{"changed": changed, "document": doc})
}

func (s *server) handleFragment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Fragment string `json:"fragment"`
		Mode     string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}
	if req.Mode == "" {
		req.Mode = "replace"
	}
	designID := chi.URLParam(r, "designID")
	elementID := chi.URLParam(r, "elementID")
	changed, doc, err := s.editor.Apply(r.Context(), designID, "merge_fragment", func(sess *editor.Session) bool {
		return sess.MergeFragment(elementID, req.Fragment, req.Mode)
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.renderPreview(designID, doc)
	writeJSON(w, 200, map[string]any{"changed": changed, "document": doc})
}

func (s *server) handleSelect(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "designID")
	elementID := chi.URLParam(r, "elementID")
	sess, err := s.editor.Open(r.Context(), designID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	sess.Select(elementID)
	writeJSON(w, 200, map[string]string{"selected": elementID})
}

func (s *server) handleScrollTo(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "designID")
	elementID := chi.URLParam(r, "elementID")
	s.mu.Lock()
	p := s.previews[designID]
	s.mu.Unlock()
	if p == nil {
		writeError(w, 409, fmt.Errorf("no open preview for %s", designID))
		return
	}
	if err := p.Send(bridge.ScrollTo{ID: elementID}); err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

// --- preview ---

func (s *server) handleOpenPreview(w http.ResponseWriter, r *http.Request) {
	if s.browser == nil {
		writeError(w, 503, fmt.Errorf("browser is disabled"))
		return
	}
	designID := chi.URLParam(r, "designID")

	sess, err := s.editor.Open(r.Context(), designID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.mu.Lock()
	if _, open := s.previews[designID]; open {
		s.mu.Unlock()
		writeJSON(w, 200, map[string]string{"status": "already open"})
		return
	}
	s.mu.Unlock()

	// Preview outlives the request; the background context ties it to the
	// process, Close ties it to the design.
	p, err := preview.Open(context.Background(), preview.Config{
		Manager:        s.browser,
		DebounceWindow: s.cfg.Preview.DebounceWindow,
		Logger:         s.logger,
	})
	if err != nil {
		writeError(w, 500, err)
		return
	}

	start := time.Now()
	if err := p.Render(sess.Document()); err != nil {
		p.Close()
		writeError(w, 500, err)
		return
	}
	s.metrics.RecordSimple(observability.MetricRenderDurationMs,
		float64(time.Since(start).Milliseconds()), "ms")

	if err := s.editor.AttachRenderer(r.Context(), designID, p); err != nil {
		p.Close()
		writeError(w, 500, err)
		return
	}

	s.mu.Lock()
	s.previews[designID] = p
	s.mu.Unlock()

	// Pump renderer events into the session until the preview closes.
	go func() {
		for msg := range p.Messages() {
			sess.HandleBridge(msg)
		}
	}()

	writeJSON(w, 201, map[string]string{"status": "open"})
}

func (s *server) handleClosePreview(w http.ResponseWriter, r *http.Request) {
	s.closePreview(chi.URLParam(r, "designID"))
	writeJSON(w, 200, map[string]string{"status": "closed"})
}

func (s *server) handleRefreshPreview(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "designID")
	s.mu.Lock()
	p := s.previews[designID]
	s.mu.Unlock()
	if p == nil {
		writeError(w, 409, fmt.Errorf("no open preview for %s", designID))
		return
	}
	sess, err := s.editor.Open(r.Context(), designID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if err := p.Render(sess.Document()); err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "rendered"})
}

func (s *server) closePreview(designID string) {
	s.mu.Lock()
	p := s.previews[designID]
	delete(s.previews, designID)
	s.mu.Unlock()
	if p != nil {
		if err := p.Close(); err != nil {
			s.logger.Warn("buildflow: close preview", "design", designID, "error", err)
		}
	}
}

func (s *server) closePreviews() {
	s.mu.Lock()
	open := make([]string, 0, len(s.previews))
	for id := range s.previews {
		open = append(open, id)
	}
	s.mu.Unlock()
	for _, id := range open {
		s.closePreview(id)
	}
}

// renderPreview pushes a full re-render to an open preview after a structural
// edit. No-op when no preview is open.
func (s *server) renderPreview(designID, doc string) {
	s.mu.Lock()
	p := s.previews[designID]
	s.mu.Unlock()
	if p == nil {
		return
	}
	if err := p.Render(doc); err != nil {
		s.logger.Warn("buildflow: preview render", "design", designID, "error", err)
	}
}

// refreshPreviews re-renders every open preview from its session document.
// Called by the DB watcher when the designs table changes.
func (s *server) refreshPreviews(ctx context.Context) {
	s.mu.Lock()
	open := make([]string, 0, len(s.previews))
	for id := range s.previews {
		open = append(open, id)
	}
	s.mu.Unlock()

	for _, id := range open {
		sess, err := s.editor.Open(ctx, id)
		if err != nil {
			continue
		}
		s.renderPreview(id, sess.Document())
	}
}

// --- exports ---

func (s *server) handleExportHTML(w http.ResponseWriter, r *http.Request) {
	s.exportText(w, r, "text/html; charset=utf-8", s.exporter.HTML)
}

func (s *server) handleExportMarkdown(w http.ResponseWriter, r *http.Request) {
	s.exportText(w, r, "text/markdown; charset=utf-8",
		func(_, fragment string) (string, error) { return s.exporter.Markdown(fragment) })
}

func (s *server) exportText(w http.ResponseWriter, r *http.Request, contentType string, render func(name, fragment string) (string, error)) {
	id := chi.URLParam(r, "designID")
	d, err := s.store.LoadRaw(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	start := time.Now()
	out, err := render(d.Name, d.Document)
	if err != nil {
		writeError(w, 500, err)
		return
	}
	s.metrics.RecordSimple(observability.MetricExportDurationMs,
		float64(time.Since(start).Milliseconds()), "ms")
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(200)
	w.Write([]byte(out))
}

func (s *server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	s.exportRendered(w, r, "application/pdf", s.exporter.PDF)
}

func (s *server) handleExportPNG(w http.ResponseWriter, r *http.Request) {
	s.exportRendered(w, r, "image/png", func(ctx context.Context, page *rod.Page) ([]byte, error) {
		return s.exporter.Screenshot(ctx, page, 1280)
	})
}

// exportRendered renders the standalone HTML export in a scratch page and
// applies the capture function to it.
func (s *server) exportRendered(w http.ResponseWriter, r *http.Request, contentType string, capture func(context.Context, *rod.Page) ([]byte, error)) {
	if s.browser == nil {
		writeError(w, 503, fmt.Errorf("browser is disabled"))
		return
	}
	id := chi.URLParam(r, "designID")
	d, err := s.store.LoadRaw(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	doc, err := s.exporter.HTML(d.Name, d.Document)
	if err != nil {
		writeError(w, 500, err)
		return
	}

	page, err := s.browser.Page()
	if err != nil {
		writeError(w, 500, err)
		return
	}
	defer page.Close()

	if err := page.SetDocumentContent(doc); err != nil {
		writeError(w, 500, err)
		return
	}
	if err := page.WaitLoad(); err != nil {
		s.logger.Warn("buildflow: export wait load", "design", id, "error", err)
	}

	start := time.Now()
	data, err := capture(r.Context(), page)
	if err != nil {
		writeError(w, 500, err)
		return
	}
	s.metrics.RecordSimple(observability.MetricExportDurationMs,
		float64(time.Since(start).Milliseconds()), "ms")

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(200)
	w.Write(data)
}

// --- import ---

func (s *server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}

	start := time.Now()
	res, err := s.importer.Import(r.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, netguard.ErrSSRF),
			errors.Is(err, netguard.ErrUnsafeScheme),
			errors.Is(err, netguard.ErrBodyTooLarge):
			writeError(w, 400, err)
		default:
			writeError(w, 502, err)
		}
		return
	}
	s.metrics.RecordSimple(observability.MetricImportDurationMs,
		float64(time.Since(start).Milliseconds()), "ms")

	name := req.Name
	if name == "" {
		name = res.Title
	}
	id, err := s.store.Create(r.Context(), name, res.Document)
	if err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 201, map[string]string{"id": id, "name": name})
}

// --- keys ---

func (s *server) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}
	if req.Name == "" {
		writeError(w, 400, fmt.Errorf("name is required"))
		return
	}
	plain, err := s.keys.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 201, map[string]string{"name": req.Name, "key": plain})
}

func (s *server) handleRevokeKey(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.keys.Revoke(r.Context(), name); err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "revoked"})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, designs.ErrNotFound) {
		writeError(w, 404, err)
		return
	}
	writeError(w, 500, err)
}
