package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/buildflow/buildflow/auth"
	"github.com/buildflow/buildflow/dbopen"
	"github.com/buildflow/buildflow/designs"
	"github.com/buildflow/buildflow/editor"
	"github.com/buildflow/buildflow/export"
	"github.com/buildflow/buildflow/markup"
	"github.com/buildflow/buildflow/observability"
	"github.com/buildflow/buildflow/webimport"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buildflow.yaml")
	data := `
server:
  addr: ":9999"
browser:
  enabled: true
  memory_limit: 536870912
auth:
  disabled: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if !cfg.Browser.Enabled || cfg.Browser.MemoryLimit != 512<<20 {
		t.Errorf("browser config = %+v", cfg.Browser)
	}
	if !cfg.Auth.Disabled {
		t.Error("auth.disabled not parsed")
	}
	// Defaults fill the rest.
	if cfg.Browser.RecycleInterval != 4*time.Hour {
		t.Errorf("recycle interval default = %v", cfg.Browser.RecycleInterval)
	}
	if cfg.DB.DesignsPath == "" {
		t.Error("designs path default missing")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Addr == "" || cfg.Preview.DebounceWindow <= 0 {
		t.Errorf("defaults incomplete: %+v", cfg)
	}
}

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	db := dbopen.OpenMemory(t,
		dbopen.WithSchema(designs.Schema),
		dbopen.WithSchema(auth.Schema),
		dbopen.WithSchema(observability.Schema),
	)

	store := designs.NewStore(db)
	metrics := observability.NewMetricsManager(db, 16, time.Minute)
	t.Cleanup(func() { metrics.Close() })

	cfg := DefaultConfig()
	cfg.Auth.Disabled = true

	srv := newServer(serverConfig{
		cfg:      cfg,
		store:    store,
		editor:   editor.NewService(editor.ServiceConfig{Store: store}),
		exporter: export.New(nil),
		importer: webimport.New(webimport.Config{}),
		keys:     auth.NewKeys(db),
		metrics:  metrics,
		logger:   testLogger(),
	})
	mcpSrv := mcp.NewServer(&mcp.Implementation{Name: "buildflow-test", Version: "0.0.0"}, nil)

	ts := httptest.NewServer(srv.router(mcpSrv))
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) map[string]any {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		t.Fatalf("POST %s: status %d", url, resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func getJSON(t *testing.T, url string) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestDesignLifecycleOverHTTP(t *testing.T) {
	ts := newTestAPI(t)

	created := postJSON(t, ts.URL+"/api/designs", map[string]string{
		"name":     "landing",
		"document": `<section class="hero"><h1>Hello</h1></section>`,
	})
	id, _ := created["id"].(string)
	if !strings.HasPrefix(id, "dsn_") {
		t.Fatalf("created id = %q", id)
	}

	got := getJSON(t, ts.URL+"/api/designs/"+id)
	doc, _ := got["document"].(string)
	if !strings.Contains(doc, markup.IDAttr) {
		t.Fatalf("opened document not tagged: %s", doc)
	}

	// Find the h1's identifier and edit its text.
	var h1 string
	for _, chunk := range strings.Split(doc, markup.IDAttr+`="`)[1:] {
		eid := chunk[:strings.Index(chunk, `"`)]
		if span, ok := markup.Locate(doc, eid); ok && span.TagName == "h1" {
			h1 = eid
		}
	}
	if h1 == "" {
		t.Fatal("h1 identifier not found")
	}

	res := postJSON(t, fmt.Sprintf("%s/api/designs/%s/elements/%s/text", ts.URL, id, h1),
		map[string]string{"text": "Welcome"})
	if changed, _ := res["changed"].(bool); !changed {
		t.Fatalf("text edit reported no change: %v", res)
	}

	// Markdown export sees the persisted edit, stripped of identifiers.
	resp, err := http.Get(ts.URL + "/api/designs/" + id + "/export/markdown")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var md bytes.Buffer
	md.ReadFrom(resp.Body)
	if !strings.Contains(md.String(), "Welcome") {
		t.Errorf("markdown export = %q", md.String())
	}
	if strings.Contains(md.String(), markup.IDAttr) {
		t.Error("markdown export leaked identifiers")
	}
}

func TestUndoOverHTTP(t *testing.T) {
	ts := newTestAPI(t)

	created := postJSON(t, ts.URL+"/api/designs", map[string]string{
		"name":     "undoable",
		"document": `<p>original</p>`,
	})
	id := created["id"].(string)

	got := getJSON(t, ts.URL+"/api/designs/"+id)
	doc := got["document"].(string)
	pid := strings.Split(strings.Split(doc, markup.IDAttr+`="`)[1], `"`)[0]

	postJSON(t, fmt.Sprintf("%s/api/designs/%s/elements/%s/text", ts.URL, id, pid),
		map[string]string{"text": "edited"})

	res := postJSON(t, ts.URL+"/api/designs/"+id+"/undo", nil)
	doc2, _ := res["document"].(string)
	if !strings.Contains(doc2, "original") {
		t.Errorf("undo did not restore: %s", doc2)
	}
}

func TestPreviewWithoutBrowserReturns503(t *testing.T) {
	ts := newTestAPI(t)
	created := postJSON(t, ts.URL+"/api/designs", map[string]string{
		"name": "x", "document": "<div>x</div>",
	})
	id := created["id"].(string)

	resp, err := http.Post(ts.URL+"/api/designs/"+id+"/preview", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 503 {
		t.Errorf("preview without browser = %d, want 503", resp.StatusCode)
	}
}

func TestUnknownDesignReturns404(t *testing.T) {
	ts := newTestAPI(t)
	resp, err := http.Get(ts.URL + "/api/designs/dsn_missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Errorf("unknown design = %d, want 404", resp.StatusCode)
	}
}
