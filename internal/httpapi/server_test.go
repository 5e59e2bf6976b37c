// ABOUTME: Tests for the HTTP surface using httptest and gin test mode
// ABOUTME: Verifies forwarding of method, escaped path, query and body
package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thumbcoded/kemmei-app-sub000/internal/local"
	"github.com/thumbcoded/kemmei-app-sub000/internal/router"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage/embedded"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	api := local.New(embedded.New(filepath.Join(t.TempDir(), "kemmei.db"), nil))
	t.Cleanup(func() { _ = api.Close() })
	return NewHandler(router.New(api, nil), nil)
}

func send(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := send(t, newTestHandler(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCardsOverHTTP(t *testing.T) {
	h := newTestHandler(t)

	w := send(t, h, http.MethodPost, "/api/cards", `{"id":"Q1","title":"T","content":"C","metadata":{"cert_id":["A","B"]}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"id":"Q1"}`, w.Body.String())

	w = send(t, h, http.MethodGet, "/api/cards/Q1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"Q1","title":"T","content":"C","metadata":{"cert_id":["A","B"]}}`, w.Body.String())

	w = send(t, h, http.MethodGet, "/api/cards?cert=B", "")
	require.Equal(t, http.StatusOK, w.Code)
	var cards []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cards))
	assert.Len(t, cards, 1)

	w = send(t, h, http.MethodGet, "/api/cards?cert=Z", "")
	assert.JSONEq(t, `[]`, w.Body.String())

	w = send(t, h, http.MethodGet, "/api/cards/missing", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", strings.TrimSpace(w.Body.String()))
}

func TestEscapedSegmentsReachRouter(t *testing.T) {
	h := newTestHandler(t)

	w := send(t, h, http.MethodPut, "/api/user-progress/u%2F1/lesson%201", `{"done":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = send(t, h, http.MethodGet, "/api/user-progress/u%2F1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"lesson 1":{"done":true}}`, w.Body.String())
}

func TestMissingKeyedWrite(t *testing.T) {
	w := send(t, newTestHandler(t), http.MethodPost, "/api/test-completions//k1", `{}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"missing"}`, w.Body.String())
}

func TestNotFound(t *testing.T) {
	h := newTestHandler(t)

	w := send(t, h, http.MethodGet, "/api/nonsense", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())

	w = send(t, h, http.MethodGet, "/elsewhere", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())
}

func TestBadBody(t *testing.T) {
	w := send(t, newTestHandler(t), http.MethodPost, "/api/cards", `{broken`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body router.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	h := newTestHandler(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, h, nil) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
