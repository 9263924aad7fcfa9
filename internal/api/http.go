package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/status"

	"go.klb.dev/clipkeep/internal/notify"
)

const maxBody = 64 << 20

type route struct {
	method, path string
	h            gwruntime.HandlerFunc
}

// NewHTTPMux returns the HTTP/JSON routes for svc on a grpc-gateway mux.
// When token is non-empty requests must carry "Authorization: Bearer <token>".
func NewHTTPMux(svc API, token string) (*gwruntime.ServeMux, error) {
	h := &httpAPI{svc: svc}
	routes := []route{
		{http.MethodGet, "/v1/clips", h.list},
		{http.MethodGet, "/v1/clips/{id}", h.get},
		{http.MethodDelete, "/v1/clips/{id}", h.delete},
		{http.MethodGet, "/v1/search", h.search},
		{http.MethodPost, "/v1/clips/text", h.captureText},
		{http.MethodPost, "/v1/clips/image", h.captureImage},
		{http.MethodPost, "/v1/clips/rich", h.captureRich},
		{http.MethodPost, "/v1/clips/files", h.captureFiles},
		{http.MethodPut, "/v1/clips/{id}/tags", h.setTags},
		{http.MethodPut, "/v1/clips/{id}/pin", h.setPinned},
		{http.MethodGet, "/v1/clips/{id}/image", h.image},
		{http.MethodGet, "/v1/clips/{id}/thumbnail", h.thumbnail},
		{http.MethodGet, "/v1/tags", h.tags},
		{http.MethodPost, "/v1/cleanup", h.cleanup},
		{http.MethodPost, "/v1/clipboard/text", h.writeText},
		{http.MethodPost, "/v1/clipboard/image", h.writeImage},
		{http.MethodGet, "/v1/events", h.events},
		{http.MethodGet, "/v1/status", h.status},
	}

	mux := gwruntime.NewServeMux()
	for _, rt := range routes {
		fn := rt.h
		if token != "" {
			fn = requireToken(token, fn)
		}
		if err := mux.HandlePath(rt.method, rt.path, fn); err != nil {
			return nil, fmt.Errorf("route %s %s: %w", rt.method, rt.path, err)
		}
	}
	return mux, nil
}

func requireToken(token string, next gwruntime.HandlerFunc) gwruntime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		if !authenticator(token).valid(r.Header.Get("Authorization")) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		next(w, r, params)
	}
}

type httpAPI struct {
	svc API
}

func (h *httpAPI) list(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.svc.ListRecent(r.Context(), &ListRequest{Limit: limit, Offset: offset})
	reply(w, http.StatusOK, resp, err)
}

func (h *httpAPI) get(w http.ResponseWriter, r *http.Request, p map[string]string) {
	resp, err := h.svc.Get(r.Context(), &IDRequest{ID: p["id"]})
	reply(w, http.StatusOK, resp, err)
}

func (h *httpAPI) delete(w http.ResponseWriter, r *http.Request, p map[string]string) {
	if _, err := h.svc.Delete(r.Context(), &IDRequest{ID: p["id"]}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *httpAPI) search(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.svc.Search(r.Context(), &SearchRequest{Query: r.URL.Query().Get("q"), Limit: limit})
	reply(w, http.StatusOK, resp, err)
}

// captureText accepts a JSON CaptureTextRequest or a text/plain body.
func (h *httpAPI) captureText(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	req := &CaptureTextRequest{Source: r.URL.Query().Get("source")}
	if mediaType(r) == "text/plain" {
		b, err := readBody(r)
		if err != nil {
			writeError(w, err)
			return
		}
		req.Text = string(b)
	} else if err := decodeJSON(r, req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.svc.CaptureText(r.Context(), req)
	reply(w, http.StatusCreated, resp, err)
}

// captureImage accepts a JSON CaptureImageRequest or a raw image/* body.
func (h *httpAPI) captureImage(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	req := &CaptureImageRequest{Source: r.URL.Query().Get("source")}
	if strings.HasPrefix(mediaType(r), "image/") {
		b, err := readBody(r)
		if err != nil {
			writeError(w, err)
			return
		}
		req.Data = b
	} else if err := decodeJSON(r, req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.svc.CaptureImage(r.Context(), req)
	reply(w, http.StatusCreated, resp, err)
}

func (h *httpAPI) captureRich(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req CaptureRichTextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.svc.CaptureRichText(r.Context(), &req)
	reply(w, http.StatusCreated, resp, err)
}

func (h *httpAPI) captureFiles(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req CaptureFilesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.svc.CaptureFiles(r.Context(), &req)
	reply(w, http.StatusCreated, resp, err)
}

func (h *httpAPI) setTags(w http.ResponseWriter, r *http.Request, p map[string]string) {
	var req SetTagsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.ID = p["id"]
	resp, err := h.svc.SetTags(r.Context(), &req)
	reply(w, http.StatusOK, resp, err)
}

func (h *httpAPI) setPinned(w http.ResponseWriter, r *http.Request, p map[string]string) {
	var req SetPinnedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.ID = p["id"]
	resp, err := h.svc.SetPinned(r.Context(), &req)
	reply(w, http.StatusOK, resp, err)
}

func (h *httpAPI) image(w http.ResponseWriter, r *http.Request, p map[string]string) {
	resp, err := h.svc.ImageBytes(r.Context(), &IDRequest{ID: p["id"]})
	writePNG(w, resp, err)
}

func (h *httpAPI) thumbnail(w http.ResponseWriter, r *http.Request, p map[string]string) {
	resp, err := h.svc.ThumbnailBytes(r.Context(), &IDRequest{ID: p["id"]})
	writePNG(w, resp, err)
}

func (h *httpAPI) tags(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	resp, err := h.svc.ListTags(r.Context(), &TagsRequest{Query: r.URL.Query().Get("q")})
	reply(w, http.StatusOK, resp, err)
}

func (h *httpAPI) cleanup(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req CleanupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.svc.Cleanup(r.Context(), &req)
	reply(w, http.StatusOK, resp, err)
}

func (h *httpAPI) writeText(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req WriteTextRequest
	if mediaType(r) == "text/plain" {
		b, err := readBody(r)
		if err != nil {
			writeError(w, err)
			return
		}
		req.Text = string(b)
	} else if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	_, err := h.svc.WriteClipboardText(r.Context(), &req)
	reply(w, http.StatusNoContent, nil, err)
}

func (h *httpAPI) writeImage(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req WriteImageRequest
	if strings.HasPrefix(mediaType(r), "image/") {
		b, err := readBody(r)
		if err != nil {
			writeError(w, err)
			return
		}
		req.Data = b
	} else if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	_, err := h.svc.WriteClipboardImage(r.Context(), &req)
	reply(w, http.StatusNoContent, nil, err)
}

// events streams change notifications as server-sent events.
func (h *httpAPI) events(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	fl, ok := w.(http.Flusher)
	if !ok {
		writeError(w, errors.New("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fl.Flush()

	err := h.svc.Watch(r.Context(), func(ev notify.Event) error {
		b, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Reason, b); err != nil {
			return err
		}
		fl.Flush()
		return nil
	})
	if err != nil {
		slog.Debug("event stream ended", "err", err)
	}
}

func (h *httpAPI) status(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	resp, err := h.svc.Status(r.Context(), &StatusRequest{})
	reply(w, http.StatusOK, resp, err)
}

// ── helpers ───────────────────────────────────────────────────────────────

func reply(w http.ResponseWriter, code int, v any, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	if code == http.StatusNoContent {
		w.WriteHeader(code)
		return
	}
	writeJSON(w, code, v)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	msg := err.Error()
	if s, ok := status.FromError(err); ok {
		msg = s.Message()
	}
	writeJSON(w, httpStatus(err), map[string]string{"error": msg})
}

func writePNG(w http.ResponseWriter, resp *BytesResponse, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Data)))
	_, _ = w.Write(resp.Data)
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

func readBody(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", errInvalidArgument, err)
	}
	if len(b) > maxBody {
		return nil, fmt.Errorf("%w: body too large", errInvalidArgument)
	}
	return b, nil
}

func decodeJSON(r *http.Request, v any) error {
	b, err := readBody(r)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgument, err)
	}
	return nil
}

func queryInt(r *http.Request, key string) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errInvalidArgument, key)
	}
	return n, nil
}
