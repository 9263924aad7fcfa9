package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHTTP(t *testing.T, f *fixture, token string) *httptest.Server {
	t.Helper()
	mux, err := NewHTTPMux(f.svc, token)
	require.NoError(t, err)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, contentType string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHTTPClipLifecycle(t *testing.T) {
	f := newFixture(t)
	srv := newHTTP(t, f, "")

	resp := do(t, http.MethodPost, srv.URL+"/v1/clips/text?source=Notes", "text/plain", []byte("Hello World"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[ItemResponse](t, resp)
	assert.Equal(t, "Hello World", created.Item.PreviewText)
	assert.Equal(t, "Notes", created.Item.SourceApp)
	id := created.Item.ID

	resp = do(t, http.MethodPut, srv.URL+"/v1/clips/"+id+"/tags", "application/json", []byte(`{"tags":["greeting"]}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"greeting"}, decode[ItemResponse](t, resp).Item.Tags)

	resp = do(t, http.MethodPut, srv.URL+"/v1/clips/"+id+"/pin", "application/json", []byte(`{"pinned":true}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[ItemResponse](t, resp).Item.Pinned)

	resp = do(t, http.MethodGet, srv.URL+"/v1/search?q=%23greeting", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[ItemsResponse](t, resp).Items, 1)

	resp = do(t, http.MethodGet, srv.URL+"/v1/tags?q=gree", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"greeting"}, decode[TagsResponse](t, resp).Tags)

	resp = do(t, http.MethodGet, srv.URL+"/v1/clips?limit=10", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[ItemsResponse](t, resp).Items, 1)

	resp = do(t, http.MethodDelete, srv.URL+"/v1/clips/"+id, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/v1/clips/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, decode[map[string]string](t, resp)["error"])
}

func TestHTTPImages(t *testing.T) {
	f := newFixture(t)
	srv := newHTTP(t, f, "")
	data := pngOf(t, 30, 60)

	resp := do(t, http.MethodPost, srv.URL+"/v1/clips/image", "image/png", data)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decode[ItemResponse](t, resp).Item.ID

	resp = do(t, http.MethodGet, srv.URL+"/v1/clips/"+id+"/image", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, data, body)

	resp = do(t, http.MethodGet, srv.URL+"/v1/clips/"+id+"/thumbnail", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	thumb, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotEqual(t, data, thumb)

	resp = do(t, http.MethodPost, srv.URL+"/v1/clipboard/image", "image/png", data)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, data, f.w.png)
}

func TestHTTPBadRequests(t *testing.T) {
	f := newFixture(t)
	srv := newHTTP(t, f, "")

	resp := do(t, http.MethodGet, srv.URL+"/v1/clips?limit=many", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/v1/cleanup", "application/json", []byte(`{"mode":"all"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/v1/clips/files", "application/json", []byte(`{"paths":`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	txt := do(t, http.MethodPost, srv.URL+"/v1/clips/text", "application/json", []byte(`{"text":"plain words"}`))
	require.Equal(t, http.StatusCreated, txt.StatusCode)
	id := decode[ItemResponse](t, txt).Item.ID
	resp = do(t, http.MethodGet, srv.URL+"/v1/clips/"+id+"/image", "", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHTTPCleanupAndStatus(t *testing.T) {
	f := newFixture(t)
	srv := newHTTP(t, f, "")
	_, err := f.svc.CaptureText(context.Background(), &CaptureTextRequest{Text: "aged"})
	require.NoError(t, err)
	f.clock.Set(f.clock.Now().AddDate(0, 0, 40))

	resp := do(t, http.MethodPost, srv.URL+"/v1/cleanup", "application/json",
		[]byte(`{"mode":"older_than","older_than_days":30}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[CleanupResponse](t, resp).Removed)

	resp = do(t, http.MethodGet, srv.URL+"/v1/status", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, decode[StatusResponse](t, resp).Items)
}

func TestHTTPToken(t *testing.T) {
	f := newFixture(t)
	srv := newHTTP(t, f, "s3cret")

	resp := do(t, http.MethodGet, srv.URL+"/v1/status", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	for _, header := range []string{"s3cret", "Basic s3cret", "Bearer wrong", "bearer s3cret"} {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/status", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", header)
		bad, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = bad.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, bad.StatusCode, header)
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/status", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer s3cret")
	ok, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer ok.Body.Close()
	assert.Equal(t, http.StatusOK, ok.StatusCode)
}

func TestHTTPEvents(t *testing.T) {
	f := newFixture(t)
	srv := newHTTP(t, f, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return f.broker.Subscribers() == 1 }, 2*time.Second, 5*time.Millisecond)
	_, err = f.svc.CaptureText(context.Background(), &CaptureTextRequest{Text: "streamed"})
	require.NoError(t, err)

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: captured\n", line)
	line, err = r.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "data: {"), line)
}
