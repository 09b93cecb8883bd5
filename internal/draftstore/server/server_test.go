package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/draftmark/draftmark/internal/draftstore"
)

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "drafts.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewServer(store, log, cfg))
	t.Cleanup(func() {
		srv.Close()
		store.Close()
	})
	return srv
}

func doPut(t *testing.T, url, body, ifMatch string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ifMatch != "" {
		req.Header.Set("If-Match", ifMatch)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT: %v", err)
	}
	return resp
}

func TestServerPutThenGet(t *testing.T) {
	srv := newTestServer(t, Config{})
	body := `[{"type":"text","content":"hello"}]`

	resp := doPut(t, srv.URL+"/v1/drafts/d1", body, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("PUT status = %d, want 201", resp.StatusCode)
	}
	if etag := resp.Header.Get("ETag"); etag != `"1"` {
		t.Errorf("ETag = %q, want %q", etag, `"1"`)
	}

	resp, err := http.Get(srv.URL + "/v1/drafts/d1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", resp.StatusCode)
	}
	got, _ := io.ReadAll(resp.Body)
	if string(got) != body {
		t.Errorf("body = %s, want %s", got, body)
	}
	if etag := resp.Header.Get("ETag"); etag != `"1"` {
		t.Errorf("GET ETag = %q, want %q", etag, `"1"`)
	}
}

func TestServerConditionalPut(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp := doPut(t, srv.URL+"/v1/drafts/d1", `[]`, "")
	resp.Body.Close()

	resp = doPut(t, srv.URL+"/v1/drafts/d1", `[]`, `"1"`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("conditional PUT status = %d, want 200", resp.StatusCode)
	}
	if etag := resp.Header.Get("ETag"); etag != `"2"` {
		t.Errorf("ETag = %q, want %q", etag, `"2"`)
	}

	// A writer still holding revision 1 must not clobber revision 2.
	resp = doPut(t, srv.URL+"/v1/drafts/d1", `[]`, `"1"`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusPreconditionFailed {
		t.Errorf("stale PUT status = %d, want 412", resp.StatusCode)
	}
}

func TestServerMissingDraft(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/v1/drafts/nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET status = %d, want 404", resp.StatusCode)
	}

	resp = doPut(t, srv.URL+"/v1/drafts/nope", `[]`, `"3"`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("conditional PUT status = %d, want 404", resp.StatusCode)
	}
}

func TestServerRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp := doPut(t, srv.URL+"/v1/drafts/d1", `{not json`, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid JSON status = %d, want 400", resp.StatusCode)
	}

	resp = doPut(t, srv.URL+"/v1/drafts/d1", `[]`, `"abc"`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed If-Match status = %d, want 400", resp.StatusCode)
	}
}

func TestServerAuth(t *testing.T) {
	srv := newTestServer(t, Config{APIKey: "secret"})

	resp := doPut(t, srv.URL+"/v1/drafts/d1", `[]`, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated PUT status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/drafts/d1", strings.NewReader(`[]`))
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("authenticated PUT status = %d, want 201", resp.StatusCode)
	}

	// Health stays open.
	hresp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	hresp.Body.Close()
	if hresp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", hresp.StatusCode)
	}
}

func TestServerWriteRateLimit(t *testing.T) {
	srv := newTestServer(t, Config{WriteRate: 0.1, WriteBurst: 2})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp := doPut(t, srv.URL+"/v1/drafts/d1", `[]`, "")
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}
	if statuses[0] == http.StatusTooManyRequests || statuses[1] == http.StatusTooManyRequests {
		t.Errorf("burst writes rejected: %v", statuses)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Errorf("third write status = %d, want 429", statuses[2])
	}

	// Other drafts have their own bucket.
	resp := doPut(t, srv.URL+"/v1/drafts/d2", `[]`, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("other draft status = %d, want 201", resp.StatusCode)
	}
}

func TestClientAgainstServer(t *testing.T) {
	srv := newTestServer(t, Config{})
	c := draftstore.NewClient(srv.URL, "")
	ctx := context.Background()
	body := []byte(`[{"type":"text","content":"draft"}]`)

	etag, err := c.Store(ctx, draftstore.Draft{ID: "d1", Nodes: body})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if etag != `"1"` {
		t.Errorf("etag = %q, want %q", etag, `"1"`)
	}

	d, err := c.Fetch(ctx, "d1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(d.Nodes) != string(body) || d.ETag != `"1"` {
		t.Errorf("fetched draft = %+v", d)
	}

	if _, err := c.Store(ctx, draftstore.Draft{ID: "d1", Nodes: body, ETag: `"9"`}); !errors.Is(err, draftstore.ErrConflict) {
		t.Errorf("stale Store err = %v, want ErrConflict", err)
	}

	etag, err = c.Store(ctx, draftstore.Draft{ID: "d1", Nodes: body, ETag: d.ETag})
	if err != nil {
		t.Fatalf("conditional Store: %v", err)
	}
	if etag != `"2"` {
		t.Errorf("etag after update = %q, want %q", etag, `"2"`)
	}
}
