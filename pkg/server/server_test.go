package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/gif"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/llumina/pkg/cache"
	"github.com/matzehuels/llumina/pkg/errors"
	"github.com/matzehuels/llumina/pkg/pipeline"
	"github.com/matzehuels/llumina/pkg/project"
	"github.com/matzehuels/llumina/pkg/session"
)

type savedProjects struct {
	mu   sync.Mutex
	last *project.Project
	n    int
}

func (s *savedProjects) save(p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = p
	s.n++
	return nil
}

func testServer(t *testing.T, opts ...Option) (*httptest.Server, *savedProjects) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	p := project.New("server")
	p.Resolution = project.Resolution{Width: 20, Height: 30}
	p.Days = []project.DayRecord{
		{ID: "a", Day: 1, Count: 10},
		{ID: "b", Day: 2, Count: 25},
	}
	scene, err := pipeline.NewScene(p, buf.Bytes())
	if err != nil {
		t.Fatalf("NewScene() error = %v", err)
	}

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(fc, nil, log.New(&bytes.Buffer{}))

	saved := &savedProjects{}
	opts = append([]Option{WithSave(saved.save)}, opts...)
	srv := New(runner, scene, opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, saved
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func openSession(t *testing.T, base string) session.Info {
	t.Helper()
	resp := do(t, http.MethodPost, base+"/sessions", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /sessions status = %d", resp.StatusCode)
	}
	return decode[session.Info](t, resp)
}

func TestHealth(t *testing.T) {
	ts, _ := testServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := decode[map[string]string](t, resp)["status"]; got != "ok" {
		t.Errorf("status = %q", got)
	}
}

func TestSessionFlow(t *testing.T) {
	ts, saved := testServer(t)
	info := openSession(t, ts.URL)
	if info.ActiveDay != 3 || info.Current != 0 || info.ID == "" {
		t.Fatalf("new session = %+v", info)
	}
	base := ts.URL + "/sessions/" + info.ID

	resp := do(t, http.MethodPut, base+"/counter", `{"value": 40}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT counter status = %d", resp.StatusCode)
	}

	stats := decode[Stats](t, do(t, http.MethodGet, base+"/stats", ""))
	if stats.Day != 3 || stats.Pixels != 400 || stats.Total != 600 || stats.Percent != "66.7" {
		t.Errorf("stats = %+v", stats)
	}

	resp = do(t, http.MethodPost, base+"/commit", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST commit status = %d", resp.StatusCode)
	}
	rec := decode[project.DayRecord](t, resp)
	if rec.Day != 3 || rec.Count != 40 {
		t.Errorf("commit = %+v", rec)
	}
	if saved.n != 1 || len(saved.last.Days) != 3 {
		t.Errorf("save hook: calls=%d last=%v", saved.n, saved.last)
	}

	// Later sessions start after the committed day.
	if next := openSession(t, ts.URL); next.ActiveDay != 4 || len(next.Days) != 3 {
		t.Errorf("second session = day %d with %d days", next.ActiveDay, len(next.Days))
	}

	resp = do(t, http.MethodPost, base+"/day", `{"day": 2}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST day status = %d", resp.StatusCode)
	}
	if got := decode[session.Info](t, resp); got.ActiveDay != 2 || got.Current != 25 {
		t.Errorf("after switch = day %d current %v", got.ActiveDay, got.Current)
	}

	resp = do(t, http.MethodDelete, base, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, base, ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete status = %d", resp.StatusCode)
	}
}

func TestFrame(t *testing.T) {
	ts, _ := testServer(t)
	info := openSession(t, ts.URL)
	base := ts.URL + "/sessions/" + info.ID
	do(t, http.MethodPut, base+"/counter", `{"value": 12}`)

	url := base + "/frame.png?hide_text=true&no_glitch=true"
	resp := do(t, http.MethodGet, url, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := resp.Header.Get("X-Cache"); got != "MISS" {
		t.Errorf("first X-Cache = %q", got)
	}
	if got := resp.Header.Get("X-Reveal-Pixels"); got != "120" {
		t.Errorf("X-Reveal-Pixels = %q", got)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 30 {
		t.Errorf("frame size = %v", b)
	}

	if got := do(t, http.MethodGet, url, "").Header.Get("X-Cache"); got != "HIT" {
		t.Errorf("second X-Cache = %q", got)
	}

	resp = do(t, http.MethodGet, base+"/mask.png", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mask status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Reveal-Percent"); got != "20.0" {
		t.Errorf("mask X-Reveal-Percent = %q", got)
	}
}

func TestExport(t *testing.T) {
	ts, _ := testServer(t)
	info := openSession(t, ts.URL)
	base := ts.URL + "/sessions/" + info.ID
	do(t, http.MethodPut, base+"/counter", `{"value": 30}`)

	resp := do(t, http.MethodGet, base+"/export.gif?fps=2&duration=1s&hide_text=true&no_glitch=true", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/gif" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "llumina-D3.gif") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	g, err := gif.DecodeAll(resp.Body)
	if err != nil {
		t.Fatalf("decode gif: %v", err)
	}
	if len(g.Image) != 2 {
		t.Errorf("frames = %d, want 2", len(g.Image))
	}
	if g.Config.Width != 10 || g.Config.Height != 15 {
		t.Errorf("gif size = %dx%d, want 10x15", g.Config.Width, g.Config.Height)
	}
}

func TestErrors(t *testing.T) {
	ts, _ := testServer(t)
	info := openSession(t, ts.URL)
	base := ts.URL + "/sessions/" + info.ID

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"unknown session", http.MethodGet, ts.URL + "/sessions/nope", "", http.StatusNotFound, errors.ErrCodeSessionNotFound},
		{"bad zoom", http.MethodGet, base + "/frame.png?zoom=big", "", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"zoom out of range", http.MethodGet, base + "/frame.png?zoom=-1", "", http.StatusBadRequest, ""},
		{"bad tone", http.MethodGet, base + "/frame.png?tone=sepia", "", http.StatusBadRequest, ""},
		{"bad bool", http.MethodGet, base + "/mask.png?refresh=maybe", "", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"export format", http.MethodGet, base + "/export.webm", "", http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad duration", http.MethodGet, base + "/export.gif?duration=forever", "", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"negative counter", http.MethodPut, base + "/counter", `{"value": -3}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"missing value", http.MethodPut, base + "/counter", `{}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", http.MethodPut, base + "/counter", `{"count": 3}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad json", http.MethodPost, base + "/day", `{`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"day zero", http.MethodPost, base + "/day", `{"day": 0}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			body := decode[errorResponse](t, resp)
			if body.Error == "" {
				t.Error("error message is empty")
			}
			if tt.code != "" && body.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Code, tt.code)
			}
		})
	}
}

func TestExpiredSession(t *testing.T) {
	ts, _ := testServer(t, WithSessionTTL(time.Millisecond))
	info := openSession(t, ts.URL)
	time.Sleep(10 * time.Millisecond)

	resp := do(t, http.MethodGet, ts.URL+"/sessions/"+info.ID+"/stats", "")
	if resp.StatusCode != http.StatusGone {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusGone)
	}
	if body := decode[errorResponse](t, resp); body.Code != errors.ErrCodeSessionExpired {
		t.Errorf("code = %s", body.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidTone, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeFileNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeSessionExpired, "x"), http.StatusGone},
		{errors.New(errors.ErrCodeUninitializedEngine, "x"), http.StatusConflict},
		{errors.New(errors.ErrCodeInternal, "x"), http.StatusInternalServerError},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{bytes.ErrTooLarge, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
