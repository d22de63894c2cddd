// Package session manages editing sessions on reveal projects.
//
// A session is one user's view of a project: the day being edited, the
// counter value typed so far and a compositor holding the reveal state for
// that view. Building the compositor is expensive (a full permutation), so
// sessions are kept alive between requests and expire after a TTL of
// inactivity.
//
// This package defines the Store interface for live sessions with an
// in-memory implementation, and a FileStore that remembers where a user
// left off in a project across runs:
//   - memory: live sessions of a preview server
//   - file: resume records for the CLI preview, under ~/.config/llumina
//
// # Usage
//
//	sess, err := session.New(ctx, runner, scene, session.DefaultTTL)
//	if err != nil {
//	    return err
//	}
//	store.Set(ctx, sess)
//
//	sess.SetCurrent(5000)
//	frame, err := sess.Frame(ctx, pipeline.Options{})
//
// Every Session method is safe for concurrent use; calls on one session are
// serialized because the compositor underneath has no locking of its own.
package session

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/llumina/pkg/compositor"
	"github.com/matzehuels/llumina/pkg/errors"
	"github.com/matzehuels/llumina/pkg/pipeline"
	"github.com/matzehuels/llumina/pkg/project"
)

// Default durations.
const (
	// DefaultTTL is how long an idle session is kept.
	DefaultTTL = 30 * time.Minute

	// DefaultRecordTTL is how long a resume record is kept.
	DefaultRecordTTL = 30 * 24 * time.Hour
)

// Session is one editing session.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	runner    *pipeline.Runner
	scene     *pipeline.Scene
	comp      *compositor.Compositor
	activeDay int
	current   float64
	ttl       time.Duration
	expiresAt time.Time
	closed    bool
}

// Info is a point-in-time view of a session, safe to serialize.
type Info struct {
	ID        string              `json:"id"`
	ProjectID string              `json:"project_id"`
	Name      string              `json:"name"`
	ActiveDay int                 `json:"active_day"`
	Current   float64             `json:"current"`
	Display   float64             `json:"display"`
	Pixels    int                 `json:"pixels"`
	Revealed  int                 `json:"revealed"`
	Total     int                 `json:"total"`
	Percent   string              `json:"percent"`
	Days      []project.DayRecord `json:"days"`
	CreatedAt time.Time           `json:"created_at"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// New opens a session on a private copy of scene's project. The active day
// starts one past the last recorded day with a counter of zero.
func New(ctx context.Context, r *pipeline.Runner, scene *pipeline.Scene, ttl time.Duration) (*Session, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	scene = scene.Clone()
	comp, err := r.NewCompositor(ctx, scene, pipeline.Options{})
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		runner:    r,
		scene:     scene,
		comp:      comp,
		activeDay: scene.Project.NextDay(),
		ttl:       ttl,
		expiresAt: now.Add(ttl),
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiredLocked(time.Now())
}

func (s *Session) expiredLocked(now time.Time) bool {
	return s.closed || now.After(s.expiresAt)
}

// ExpiresAt returns the current expiry.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// Touch pushes the expiry one TTL past now.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresAt = time.Now().Add(s.ttl)
}

// ActiveDay returns the day being edited.
func (s *Session) ActiveDay() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeDay
}

// Current returns the counter value being edited.
func (s *Session) Current() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Project returns a copy of the session's project.
func (s *Session) Project() *project.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.Project.Clone()
}

// SwitchDay makes day the active day. The counter is loaded from the day's
// record, or zero for a day without one, and the mask starts over.
func (s *Session) SwitchDay(day int) error {
	if day < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "day must be >= 1, got %d", day)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	s.activeDay = day
	s.current = 0
	if rec, ok := s.scene.Project.Day(day); ok {
		s.current = rec.Count
	}
	s.comp.ResetMask()
	return nil
}

// SetCurrent sets the counter value of the active day.
func (s *Session) SetCurrent(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "counter must be a non-negative number, got %v", v)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	s.current = v
	return nil
}

// Commit records the counter for the active day. Committing a new day
// advances to the next one with a zero counter; re-committing an existing
// day stays on it.
func (s *Session) Commit(ts time.Time) (project.DayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return project.DayRecord{}, err
	}
	p := s.scene.Project
	_, existed := p.Day(s.activeDay)
	rec := p.UpsertDay(s.activeDay, s.current, ts)
	if !existed {
		s.activeDay++
		s.current = 0
	}
	return rec, nil
}

// DeleteDay removes the record for day. Deleting the active day's record
// keeps the typed counter.
func (s *Session) DeleteDay(day int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return false, err
	}
	return s.scene.Project.DeleteDay(day), nil
}

// Options returns render options for the active day and counter.
func (s *Session) Options() pipeline.Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pipeline.Options{Day: s.activeDay, Counter: s.current}
}

// Frame renders the active day. Day and Counter of opts are replaced by the
// session's own; every other field is honored.
func (s *Session) Frame(ctx context.Context, opts pipeline.Options) (*pipeline.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return nil, err
	}
	opts.Day, opts.Counter = s.activeDay, s.current
	return s.runner.RenderFrame(ctx, s.comp, s.scene, opts)
}

// Mask renders the reveal mask of the active day.
func (s *Session) Mask(ctx context.Context, opts pipeline.Options) (*pipeline.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return nil, err
	}
	opts.Day, opts.Counter = s.activeDay, s.current
	return s.runner.RenderMask(ctx, s.comp, s.scene, opts)
}

// Export renders the active day's animation as a single file (APNG or GIF).
func (s *Session) Export(ctx context.Context, opts pipeline.Options) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return nil, false, err
	}
	opts.Day, opts.Counter = s.activeDay, s.current
	return s.runner.ExportBytes(ctx, s.comp, s.scene, opts)
}

// Info returns a snapshot of the session state.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.scene.Project
	display := p.Display(s.activeDay, s.current)
	st := s.comp.StatsFor(display)
	return Info{
		ID:        s.ID,
		ProjectID: p.ID,
		Name:      p.Name,
		ActiveDay: s.activeDay,
		Current:   s.current,
		Display:   display,
		Pixels:    st.Pixels,
		Revealed:  st.Revealed,
		Total:     st.Total,
		Percent:   st.PercentText(),
		Days:      append([]project.DayRecord(nil), p.Days...),
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.expiresAt,
	}
}

// Record returns the resume record of the session.
func (s *Session) Record() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Record{
		ID:        s.ID,
		ProjectID: s.scene.Project.ID,
		ActiveDay: s.activeDay,
		Current:   s.current,
		CreatedAt: s.CreatedAt,
		ExpiresAt: time.Now().Add(DefaultRecordTTL),
	}
}

// Restore continues where rec left off. Records of other projects are
// ignored.
func (s *Session) Restore(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ProjectID != s.scene.Project.ID || rec.ActiveDay < 1 || rec.Current < 0 {
		return
	}
	s.activeDay = rec.ActiveDay
	s.current = rec.Current
	s.comp.ResetMask()
}

// Close releases the compositor. A closed session reports itself expired.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.comp.Close()
}

func (s *Session) usableLocked() error {
	if s.closed {
		return errors.New(errors.ErrCodeSessionExpired, "session %s is closed", s.ID)
	}
	return nil
}
