// ABOUTME: Tests for call dispatch, path and query parsing, and error mapping
// ABOUTME: Runs against the embedded engine in a temp directory
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/thumbcoded/kemmei-app-sub000/internal/local"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage/embedded"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	api := local.New(embedded.New(filepath.Join(t.TempDir(), "kemmei.db"), nil))
	t.Cleanup(func() { _ = api.Close() })
	return New(api, nil)
}

// do runs a call and returns the status and the body as compact JSON
func do(t *testing.T, r *Router, method, path, body string) (int, string) {
	t.Helper()
	req := Request{Path: path, Method: method}
	if body != "" {
		req.Body = json.RawMessage(body)
	}
	resp := r.Handle(context.Background(), req)
	data, err := json.Marshal(resp.Body)
	if err != nil {
		t.Fatalf("%s %s: body not serializable: %v", method, path, err)
	}
	return resp.Status, string(data)
}

func expect(t *testing.T, r *Router, method, path, body string, wantStatus int, wantBody string) {
	t.Helper()
	status, got := do(t, r, method, path, body)
	if status != wantStatus {
		t.Errorf("%s %s status = %d, want %d (body %s)", method, path, status, wantStatus, got)
	}
	if wantBody != "" {
		if diff := cmp.Diff(wantBody, got); diff != "" {
			t.Errorf("%s %s body mismatch (-want +got):\n%s", method, path, diff)
		}
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		raw       string
		wantSegs  []string
		wantQuery map[string]string
	}{
		{"cards", []string{"cards"}, map[string]string{}},
		{"/api/cards/Q1/", []string{"cards", "Q1"}, map[string]string{}},
		{"api/cards?cert_id=A&difficulty=Hard", []string{"cards"}, map[string]string{"cert_id": "A", "difficulty": "Hard"}},
		{"cards?cert=A&cert=B", []string{"cards"}, map[string]string{"cert": "A"}},
		{"user-progress/u%201/k%2F1", []string{"user-progress", "u 1", "k/1"}, map[string]string{}},
		{"/", nil, map[string]string{}},
		{"api", nil, map[string]string{}},
		{"apiary/x", []string{"apiary", "x"}, map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			segs, query := splitPath(tt.raw)
			if diff := cmp.Diff(tt.wantSegs, segs); diff != "" {
				t.Errorf("segments mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantQuery, query); diff != "" {
				t.Errorf("query mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCardRoutes(t *testing.T) {
	r := newTestRouter(t)

	expect(t, r, "GET", "cards/Q1", "", http.StatusOK, "null")
	expect(t, r, "GET", "cards", "", http.StatusOK, "[]")

	expect(t, r, "POST", "cards", `{"id":"Q1","title":"T","content":"C","metadata":{"cert_id":"A"}}`,
		http.StatusOK, `{"ok":true,"id":"Q1"}`)
	expect(t, r, "PUT", "/api/cards/", `{"id":"Q2","title":"T2","content":"C2","metadata":{"cert_id":["A","B"]}}`,
		http.StatusOK, `{"ok":true,"id":"Q2"}`)

	expect(t, r, "GET", "cards/Q1", "", http.StatusOK,
		`{"id":"Q1","title":"T","content":"C","metadata":{"cert_id":"A"}}`)

	_, body := do(t, r, "GET", "cards?cert_id=B", "")
	var cards []map[string]any
	if err := json.Unmarshal([]byte(body), &cards); err != nil {
		t.Fatal(err)
	}
	if len(cards) != 1 || cards[0]["id"] != "Q2" {
		t.Errorf("GET cards?cert_id=B = %s, want only Q2", body)
	}

	expect(t, r, "DELETE", "cards/Q1", "", http.StatusOK, `{"ok":true}`)
	expect(t, r, "GET", "cards/Q1", "", http.StatusOK, "null")
}

func TestSaveCardGeneratesID(t *testing.T) {
	r := newTestRouter(t)
	resp := r.Handle(context.Background(), Request{Path: "cards", Method: "POST", Body: json.RawMessage(`{"title":"x"}`)})
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}
	res, ok := resp.Body.(local.SaveResult)
	if !ok || res.ID == "" {
		t.Errorf("body = %#v, want SaveResult with generated id", resp.Body)
	}
}

func TestUserRoutes(t *testing.T) {
	r := newTestRouter(t)

	expect(t, r, "GET", "users", "", http.StatusOK, "[]")
	expect(t, r, "GET", "users/current", "", http.StatusOK, "null")

	expect(t, r, "POST", "users", `{"id":"u1","username":"ana","passwordHash":"h","metadata":{}}`,
		http.StatusOK, `{"ok":true,"id":"u1"}`)
	expect(t, r, "GET", "users", "", http.StatusOK, `[{"id":"u1","username":"ana","metadata":{}}]`)
	expect(t, r, "GET", "users/u1", "", http.StatusOK, `{"id":"u1","username":"ana","metadata":{}}`)
	expect(t, r, "GET", "users/by-username/ana", "", http.StatusOK, `{"id":"u1","username":"ana","metadata":{}}`)

	expect(t, r, "PUT", "users/current", `{"id":"u1"}`, http.StatusOK, `{"ok":true}`)
	expect(t, r, "GET", "users/current/id", "", http.StatusOK, `"u1"`)
	expect(t, r, "GET", "users/current", "", http.StatusOK, `{"id":"u1","username":"ana","metadata":{}}`)

	expect(t, r, "PUT", "users/current", `{"id":""}`, http.StatusOK, `{"ok":true}`)
	expect(t, r, "GET", "users/current", "", http.StatusOK, "null")
}

func TestKeyedBlobRoutes(t *testing.T) {
	for _, ns := range []string{"user-progress", "test-completions", "user-unlocks"} {
		t.Run(ns, func(t *testing.T) {
			r := newTestRouter(t)

			expect(t, r, "GET", ns+"/u1", "", http.StatusOK, "{}")
			expect(t, r, "PUT", ns+"/u1/k1", `{"a":1}`, http.StatusOK, `{"ok":true}`)
			expect(t, r, "POST", ns+"/u1/k2", `[1,2]`, http.StatusOK, `{"ok":true}`)
			expect(t, r, "POST", ns+"/u2/k1", `true`, http.StatusOK, `{"ok":true}`)
			expect(t, r, "GET", ns+"/u1", "", http.StatusOK, `{"k1":{"a":1},"k2":[1,2]}`)

			expect(t, r, "DELETE", ns+"/u1", "", http.StatusOK, `{"ok":true}`)
			expect(t, r, "GET", ns+"/u1", "", http.StatusOK, "{}")
			expect(t, r, "GET", ns+"/u2", "", http.StatusOK, `{"k1":true}`)
		})
	}
}

func TestKeyedWriteMissingPassesThrough(t *testing.T) {
	r := newTestRouter(t)
	expect(t, r, "PUT", "user-unlocks//k1", `{}`, http.StatusOK, `{"ok":false,"error":"missing"}`)
	expect(t, r, "PUT", "user-unlocks/u1/", `{}`, http.StatusNotFound, `{"error":"not found"}`)
	expect(t, r, "GET", "user-unlocks/u1", "", http.StatusOK, "{}")
}

func TestDomainMapRoute(t *testing.T) {
	r := newTestRouter(t)
	expect(t, r, "GET", "domainmap", "", http.StatusOK, `{"certNames":{},"domainMaps":{},"subdomainMaps":{}}`)
}

func TestInitRoute(t *testing.T) {
	r := newTestRouter(t)
	status, body := do(t, r, "POST", "init", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d, body %s", status, body)
	}
	var res local.InitResult
	if err := json.Unmarshal([]byte(body), &res); err != nil || !res.OK || res.Path == "" {
		t.Errorf("init body = %s", body)
	}
}

func TestUnmatchedRoutes(t *testing.T) {
	r := newTestRouter(t)
	for _, tc := range []struct{ method, path string }{
		{"GET", "nonsense"},
		{"GET", ""},
		{"PATCH", "cards"},
		{"DELETE", "cards"},
		{"GET", "cards/Q1/extra"},
		{"POST", "user-progress/u1"},
		{"GET", "user-progress"},
	} {
		expect(t, r, tc.method, tc.path, "", http.StatusNotFound, `{"error":"not found"}`)
	}
}

func TestMethodDefaultsAndCase(t *testing.T) {
	r := newTestRouter(t)
	expect(t, r, "", "cards", "", http.StatusOK, "[]")
	expect(t, r, "get", "cards", "", http.StatusOK, "[]")
}

func TestBadBodyIs500(t *testing.T) {
	r := newTestRouter(t)
	status, body := do(t, r, "POST", "cards", `{not json`)
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", status)
	}
	var eb ErrorBody
	if err := json.Unmarshal([]byte(body), &eb); err != nil || eb.Error == "" {
		t.Errorf("body = %s, want error message", body)
	}

	status, _ = do(t, r, "POST", "cards", "")
	if status != http.StatusInternalServerError {
		t.Errorf("empty body status = %d, want 500", status)
	}
}

// brokenEngine fails or panics on every operation
type brokenEngine struct {
	storage.Engine
	panics bool
}

func (b brokenEngine) Name() string { return "broken" }
func (b brokenEngine) Path() string { return "nowhere" }
func (b brokenEngine) Open(ctx context.Context) error { return nil }
func (b brokenEngine) Close() error { return nil }

func (b brokenEngine) SelectAll(ctx context.Context, c storage.Collection) ([]storage.Record, error) {
	if b.panics {
		panic("index out of range")
	}
	return nil, errors.New("disk I/O error")
}

func TestEngineErrorBecomes500(t *testing.T) {
	r := New(local.New(brokenEngine{}), nil)
	expect(t, r, "GET", "cards", "", http.StatusInternalServerError, `{"error":"disk I/O error"}`)
}

func TestPanicBecomes500(t *testing.T) {
	r := New(local.New(brokenEngine{panics: true}), nil)
	expect(t, r, "GET", "cards", "", http.StatusInternalServerError, `{"error":"panic: index out of range"}`)
}
