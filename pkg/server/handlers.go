package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/llumina/pkg/errors"
	"github.com/matzehuels/llumina/pkg/pipeline"
	"github.com/matzehuels/llumina/pkg/session"
	"github.com/matzehuels/llumina/pkg/sink"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 16

// Stats is the body of GET /sessions/{id}/stats.
type Stats struct {
	Day      int     `json:"day"`
	Current  float64 `json:"current"`
	Display  float64 `json:"display"`
	Pixels   int     `json:"pixels"`
	Revealed int     `json:"revealed"`
	Total    int     `json:"total"`
	Percent  string  `json:"percent"`
}

type counterRequest struct {
	Value *float64 `json:"value"`
}

type dayRequest struct {
	Day int `json:"day"`
}

type errorResponse struct {
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := session.New(r.Context(), s.runner, s.baseScene(), s.ttl)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Set(r.Context(), sess); err != nil {
		_ = sess.Close()
		s.writeError(w, err)
		return
	}
	s.logger.Info("session opened", "session", sess.ID, "day", sess.ActiveDay())
	w.Header().Set("Location", "/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, sess.Info())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Get(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	info := sess.Info()
	writeJSON(w, http.StatusOK, Stats{
		Day:      info.ActiveDay,
		Current:  info.Current,
		Display:  info.Display,
		Pixels:   info.Pixels,
		Revealed: info.Revealed,
		Total:    info.Total,
		Percent:  info.Percent,
	})
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	s.servePNG(w, r, (*session.Session).Frame)
}

func (s *Server) handleMask(w http.ResponseWriter, r *http.Request) {
	s.servePNG(w, r, (*session.Session).Mask)
}

type renderFunc func(*session.Session, context.Context, pipeline.Options) (*pipeline.Artifact, error)

func (s *Server) servePNG(w http.ResponseWriter, r *http.Request, render renderFunc) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	opts, err := renderOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts.Logger = s.logger
	art, err := render(sess, r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "image/png")
	h.Set("Cache-Control", "no-store")
	h.Set("X-Cache", cacheHeader(art.CacheHit))
	h.Set("X-Reveal-Percent", art.Stats.PercentText())
	h.Set("X-Reveal-Pixels", strconv.Itoa(art.Stats.Revealed))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Data)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	opts, err := exportOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts.Logger = s.logger
	data, hit, err := sess.Export(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	h := w.Header()
	h.Set("Content-Type", contentType(opts.Format))
	h.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="llumina-D%d.%s"`, sess.ActiveDay(), opts.Format))
	h.Set("X-Cache", cacheHeader(hit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleSetCounter(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req counterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Value == nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "value is required"))
		return
	}
	if err := sess.SetCurrent(*req.Value); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

func (s *Server) handleSwitchDay(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req dayRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := sess.SwitchDay(req.Day); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	rec, err := sess.Commit(time.Now().UTC())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.committed(rec); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "save project"))
		return
	}
	s.logger.Info("day committed", "session", sess.ID, "day", rec.Day, "count", rec.Count)
	writeJSON(w, http.StatusOK, rec)
}

// session looks up the {id} session, refreshing its expiry. On failure the
// error response has been written.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	sess.Touch()
	return sess, true
}

// renderOptions reads the look options shared by frames and exports from
// the query string.
func renderOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	var opts pipeline.Options
	var err error
	if opts.Zoom, err = floatParam(q.Get("zoom"), "zoom"); err != nil {
		return opts, err
	}
	if opts.Glitch, err = floatParam(q.Get("glitch"), "glitch"); err != nil {
		return opts, err
	}
	if opts.NoGlitch, err = boolParam(q.Get("no_glitch"), "no_glitch"); err != nil {
		return opts, err
	}
	if opts.HideText, err = boolParam(q.Get("hide_text"), "hide_text"); err != nil {
		return opts, err
	}
	if opts.Refresh, err = boolParam(q.Get("refresh"), "refresh"); err != nil {
		return opts, err
	}
	opts.Tone = q.Get("tone")
	return opts, nil
}

func exportOptions(r *http.Request) (pipeline.Options, error) {
	opts, err := renderOptions(r)
	if err != nil {
		return opts, err
	}
	format := chi.URLParam(r, "format")
	if format != sink.FormatAPNG && format != sink.FormatGIF {
		return opts, errors.New(errors.ErrCodeInvalidFormat, "export format must be apng or gif, got %q", format)
	}
	opts.Format = format

	q := r.URL.Query()
	if v := q.Get("fps"); v != "" {
		if opts.FPS, err = strconv.Atoi(v); err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "fps must be an integer, got %q", v)
		}
	}
	for name, dst := range map[string]*time.Duration{"duration": &opts.Duration, "ease": &opts.Ease} {
		if v := q.Get(name); v != "" {
			if *dst, err = time.ParseDuration(v); err != nil {
				return opts, errors.New(errors.ErrCodeInvalidInput, "%s must be a duration like 6s, got %q", name, v)
			}
		}
	}
	if opts.Scale, err = floatParam(q.Get("scale"), "scale"); err != nil {
		return opts, err
	}
	if opts.FromPrevious, err = boolParam(q.Get("from_previous"), "from_previous"); err != nil {
		return opts, err
	}
	if opts.NoAccents, err = boolParam(q.Get("no_accents"), "no_accents"); err != nil {
		return opts, err
	}
	return opts, nil
}

func floatParam(v, name string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be a number, got %q", name, v)
	}
	return f, nil
}

func boolParam(v, name string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "%s must be true or false, got %q", name, v)
	}
	return b, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorResponse{Code: code, Error: errors.UserMessage(err)})
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	if errors.IsInvalid(err) {
		return http.StatusBadRequest
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound, errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeSessionExpired:
		return http.StatusGone
	case errors.ErrCodeUninitializedEngine:
		return http.StatusConflict
	case errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

func contentType(format string) string {
	if format == sink.FormatGIF {
		return "image/gif"
	}
	return "image/apng"
}
