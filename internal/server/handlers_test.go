package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/kazoeru/internal/concordance"
	"github.com/hyperjump/kazoeru/internal/config"
	"github.com/hyperjump/kazoeru/internal/corpus"
	"github.com/hyperjump/kazoeru/internal/index"
	"github.com/hyperjump/kazoeru/internal/models"
	"github.com/hyperjump/kazoeru/internal/search"
	"github.com/hyperjump/kazoeru/internal/storage"
)

const export = `[
  {"volume_title": "Old Testament", "book_title": "Genesis", "chapter_number": 1, "verse_number": 1, "scripture_text": "In the beginning God created the heaven and the earth."},
  {"volume_title": "Book of Mormon", "book_title": "Ether", "chapter_number": 12, "verse_number": 6, "scripture_text": "Faith is things which are hoped for and not seen."}
]`

func miniIndex() *index.Index {
	return index.New([]*index.StandardWork{
		index.NewStandardWork("A", []*index.Book{
			index.NewBook("A", "X", strings.Fields("love thy neighbor love one another")),
			index.NewBook("A", "Y", strings.Fields("god is love")),
		}),
	})
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.IndexPath = filepath.Join(dir, "frequency.json")
	cfg.Storage.DatabasePath = filepath.Join(dir, "kazoeru.db")
	cfg.Storage.BleveIndexPath = filepath.Join(dir, "bleve")
	return cfg
}

func newTestServer(t *testing.T, withConcordance bool) *Server {
	t.Helper()
	cfg := testConfig(t)
	store := index.NewStaticStore(miniIndex())
	st, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })

	var conc *concordance.Concordance
	if withConcordance {
		ctx := context.Background()
		c, _, err := corpus.Decode(ctx, strings.NewReader(export))
		if err != nil {
			t.Fatal(err)
		}
		bi, err := concordance.RecreateBleveIndex(cfg.Storage.BleveIndexPath)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = bi.Close() })
		if err := concordance.Build(ctx, c, st, bi); err != nil {
			t.Fatal(err)
		}
		conc = concordance.New(st, bi)
	}
	return NewServer(search.NewEngine(store), conc, store, st, cfg, nil)
}

func do(t *testing.T, srv *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	return w
}

func TestHandleFrequency(t *testing.T) {
	srv := newTestServer(t, false)
	tests := []struct {
		name      string
		method    string
		target    string
		body      string
		wantCode  int
		wantRows  int
		wantScope string
		wantRaw   int
	}{
		{"post all", http.MethodPost, "/api/v1/frequency", `{"term":"Love"}`, http.StatusOK, 1, models.ScopeAll, 3},
		{"post by book", http.MethodPost, "/api/v1/frequency", `{"term":"love","granularity":"by_book"}`, http.StatusOK, 2, "X", 2},
		{"get phrase", http.MethodGet, "/api/v1/frequency?term=love+one&granularity=by_book", "", http.StatusOK, 2, "X", 1},
		{"get by work", http.MethodGet, "/api/v1/frequency?term=god&granularity=work", "", http.StatusOK, 1, "A", 1},
		{"empty term", http.MethodPost, "/api/v1/frequency", `{"term":"  "}`, http.StatusBadRequest, 0, "", 0},
		{"punctuation only", http.MethodGet, "/api/v1/frequency?term=%3F%21", "", http.StatusBadRequest, 0, "", 0},
		{"bad granularity", http.MethodPost, "/api/v1/frequency", `{"term":"love","granularity":"by_chapter"}`, http.StatusBadRequest, 0, "", 0},
		{"bad body", http.MethodPost, "/api/v1/frequency", `{`, http.StatusBadRequest, 0, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body []byte
			if tt.body != "" {
				body = []byte(tt.body)
			}
			w := do(t, srv, tt.method, tt.target, body)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				var e map[string]string
				if err := json.NewDecoder(w.Body).Decode(&e); err != nil || e["error"] == "" {
					t.Errorf("error envelope missing: %v %v", e, err)
				}
				return
			}
			var resp models.FrequencyResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if len(resp.Rows) != tt.wantRows {
				t.Fatalf("rows = %d, want %d", len(resp.Rows), tt.wantRows)
			}
			top := resp.Rows[0]
			if top.Scope != tt.wantScope || top.RawCount != tt.wantRaw || top.Rank != 1 {
				t.Errorf("top row = %+v", top)
			}
		})
	}
}

func TestHandleFrequency_IndexUnavailable(t *testing.T) {
	cfg := testConfig(t)
	store := index.NewStore(filepath.Join(t.TempDir(), "missing.json"))
	srv := NewServer(search.NewEngine(store), nil, store, nil, cfg, nil)

	w := do(t, srv, http.MethodPost, "/api/v1/frequency", []byte(`{"term":"love"}`))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	w = do(t, srv, http.MethodGet, "/health", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("health status = %d, want 503", w.Code)
	}
}

func TestHandleVerses(t *testing.T) {
	srv := newTestServer(t, true)

	w := do(t, srv, http.MethodGet, "/api/v1/verses?q=the+earth", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp models.VerseResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || len(resp.Hits) != 1 || resp.Hits[0].Reference != "Genesis 1:1" {
		t.Errorf("response = %+v", resp)
	}

	w = do(t, srv, http.MethodGet, "/api/v1/verses?q=faith&work=NT", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp = models.VerseResponse{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 0 {
		t.Errorf("faith in NT total = %d, want 0", resp.Total)
	}

	for _, target := range []string{
		"/api/v1/verses?q=",
		"/api/v1/verses?q=faith&limit=many",
		"/api/v1/verses?q=faith&work=Apocrypha",
	} {
		if w := do(t, srv, http.MethodGet, target, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, w.Code)
		}
	}
}

func TestHandleVerses_NotEnabled(t *testing.T) {
	srv := newTestServer(t, false)
	w := do(t, srv, http.MethodGet, "/api/v1/verses?q=love", nil)
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t, true)
	w := do(t, srv, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var report models.StatusReport
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.TotalTokens != 9 || report.Books != 2 || report.Vocabulary != 7 {
		t.Errorf("report = %+v", report)
	}
	if report.Verses != 2 {
		t.Errorf("verses = %d, want 2", report.Verses)
	}
	if len(report.Works) != 1 || report.Works[0].Name != "A" {
		t.Errorf("works = %+v", report.Works)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, false)
	w := do(t, srv, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
