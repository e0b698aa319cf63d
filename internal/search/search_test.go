package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/courses/internal/models"
)

// fakeES answers the handful of endpoints the index uses, keeping documents in memory.
type fakeES struct {
	mu       sync.Mutex
	docs     map[string]courseDoc
	requests []string
	lastBody map[string]any
	fail     bool
}

func newFakeES(t *testing.T) (*fakeES, *httptest.Server) {
	t.Helper()

	f := &fakeES{docs: map[string]courseDoc{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeES) setFail() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = true
}

func (f *fakeES) doc(id string) (courseDoc, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	return d, ok
}

func (f *fakeES) seen(req string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r == req {
			return true
		}
	}
	return false
}

func (f *fakeES) lastSearch() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBody
}

func (f *fakeES) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	if f.fail {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.URL.Path == "/":
		_, _ = w.Write([]byte(`{"name":"fake","cluster_name":"test","version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`))
	case len(parts) == 3 && parts[1] == "_doc" && (r.Method == http.MethodPut || r.Method == http.MethodPost):
		var doc courseDoc
		_ = json.NewDecoder(r.Body).Decode(&doc)
		f.docs[parts[2]] = doc
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	case len(parts) == 3 && parts[1] == "_doc" && r.Method == http.MethodDelete:
		if _, ok := f.docs[parts[2]]; !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"result":"not_found"}`))
			return
		}
		delete(f.docs, parts[2])
		_, _ = w.Write([]byte(`{"result":"deleted"}`))
	case len(parts) == 2 && parts[1] == "_search":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.lastBody = body
		q := body["query"].(map[string]any)["multi_match"].(map[string]any)["query"].(string)

		type hit struct {
			ID string `json:"_id"`
		}
		var hits []hit
		for id, d := range f.docs {
			if strings.Contains(strings.ToLower(d.Title+" "+d.Description), strings.ToLower(q)) {
				hits = append(hits, hit{ID: id})
			}
		}
		resp := map[string]any{"hits": map[string]any{"total": map[string]any{"value": len(hits)}, "hits": hits}}
		_ = json.NewEncoder(w).Encode(resp)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func TestNewClient(t *testing.T) {
	t.Parallel()
	f, srv := newFakeES(t)

	client, err := NewClient(context.Background(), Config{URL: srv.URL})
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.True(t, f.seen("GET /"))

	f.setFail()
	_, err = NewClient(context.Background(), Config{URL: srv.URL})
	assert.Error(t, err)
}

func TestIndexLifecycle(t *testing.T) {
	t.Parallel()
	f, srv := newFakeES(t)

	client, err := NewClient(context.Background(), Config{URL: srv.URL})
	require.NoError(t, err)
	idx := NewIndex(client, "courses")
	ctx := context.Background()

	goCourse := &models.Course{ID: uuid.New(), Title: "Go", Description: "concurrency", Tags: []string{"backend"}}
	rust := &models.Course{ID: uuid.New(), Title: "Rust", Description: "ownership"}
	require.NoError(t, idx.Index(ctx, goCourse))
	require.NoError(t, idx.Index(ctx, rust))
	doc, ok := f.doc(goCourse.ID.String())
	require.True(t, ok)
	assert.Equal(t, "Go", doc.Title)
	assert.Equal(t, []string{"backend"}, doc.Tags)

	total, ids, err := idx.Search(ctx, "concurrency", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []uuid.UUID{goCourse.ID}, ids)
	body := f.lastSearch()
	assert.EqualValues(t, 10, body["size"])
	assert.EqualValues(t, 0, body["from"])

	require.NoError(t, idx.Delete(ctx, goCourse.ID))
	require.NoError(t, idx.Delete(ctx, goCourse.ID))
	_, ok = f.doc(goCourse.ID.String())
	assert.False(t, ok)

	total, ids, err = idx.Search(ctx, "concurrency", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, ids)
}

func TestIndexErrors(t *testing.T) {
	t.Parallel()
	f, srv := newFakeES(t)

	client, err := NewClient(context.Background(), Config{URL: srv.URL})
	require.NoError(t, err)
	idx := NewIndex(client, "courses")
	f.setFail()

	ctx := context.Background()
	assert.Error(t, idx.Index(ctx, &models.Course{ID: uuid.New(), Title: "Go"}))
	assert.Error(t, idx.Delete(ctx, uuid.New()))
	_, _, err = idx.Search(ctx, "go", 0, 10)
	assert.Error(t, err)
}
