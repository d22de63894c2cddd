package session

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/llumina/pkg/errors"
	"github.com/matzehuels/llumina/pkg/pipeline"
	"github.com/matzehuels/llumina/pkg/project"
)

func testScene(t *testing.T) *pipeline.Scene {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	p := project.New("session")
	p.Resolution = project.Resolution{Width: 20, Height: 30}
	p.Days = []project.DayRecord{
		{ID: "a", Day: 1, Count: 10},
		{ID: "b", Day: 2, Count: 25},
	}
	s, err := pipeline.NewScene(p, buf.Bytes())
	if err != nil {
		t.Fatalf("NewScene() error = %v", err)
	}
	return s
}

func newSession(t *testing.T) (*Session, *pipeline.Scene) {
	t.Helper()
	scene := testScene(t)
	sess, err := New(context.Background(), pipeline.NewRunner(nil, nil, nil), scene, time.Minute)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess, scene
}

func TestNew(t *testing.T) {
	sess, _ := newSession(t)
	if sess.ID == "" {
		t.Error("session should get an ID")
	}
	if got := sess.ActiveDay(); got != 3 {
		t.Errorf("ActiveDay() = %d, want 3", got)
	}
	if got := sess.Current(); got != 0 {
		t.Errorf("Current() = %v, want 0", got)
	}
	if sess.IsExpired() {
		t.Error("new session should not be expired")
	}
}

func TestCommit(t *testing.T) {
	sess, scene := newSession(t)

	if err := sess.SetCurrent(40); err != nil {
		t.Fatalf("SetCurrent() error = %v", err)
	}
	rec, err := sess.Commit(time.Time{})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if rec.Day != 3 || rec.Count != 40 || rec.ID == "" || rec.Timestamp.IsZero() {
		t.Errorf("Commit() = %+v", rec)
	}
	if sess.ActiveDay() != 4 || sess.Current() != 0 {
		t.Errorf("after new day: day=%d current=%v, want 4, 0", sess.ActiveDay(), sess.Current())
	}

	// Re-committing a recorded day replaces it and stays on it.
	if err := sess.SwitchDay(2); err != nil {
		t.Fatal(err)
	}
	if sess.Current() != 25 {
		t.Errorf("SwitchDay(2) loaded %v, want 25", sess.Current())
	}
	if err := sess.SetCurrent(30); err != nil {
		t.Fatal(err)
	}
	rec, err = sess.Commit(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != "b" || rec.Count != 30 {
		t.Errorf("re-commit = %+v, want ID b count 30", rec)
	}
	if sess.ActiveDay() != 2 {
		t.Errorf("ActiveDay() = %d, want 2", sess.ActiveDay())
	}

	if n := len(scene.Project.Days); n != 2 {
		t.Errorf("source project has %d days, sessions must edit a copy", n)
	}
	if n := len(sess.Project().Days); n != 3 {
		t.Errorf("session project has %d days, want 3", n)
	}
}

func TestSwitchDay(t *testing.T) {
	sess, _ := newSession(t)
	if err := sess.SwitchDay(0); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("SwitchDay(0) error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
	if err := sess.SwitchDay(7); err != nil {
		t.Fatal(err)
	}
	if sess.ActiveDay() != 7 || sess.Current() != 0 {
		t.Errorf("unrecorded day: day=%d current=%v", sess.ActiveDay(), sess.Current())
	}
}

func TestSetCurrentRejects(t *testing.T) {
	sess, _ := newSession(t)
	for _, v := range []float64{-1, math.NaN(), math.Inf(1)} {
		if err := sess.SetCurrent(v); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("SetCurrent(%v) error = %v", v, err)
		}
	}
}

func TestFrameAndInfo(t *testing.T) {
	sess, _ := newSession(t)
	ctx := context.Background()
	sess.scene.Project.RevealMode = project.ModeDelta
	if err := sess.SetCurrent(5); err != nil {
		t.Fatal(err)
	}

	art, err := sess.Frame(ctx, pipeline.Options{Counter: 9999, Day: 1, HideText: true})
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	// Display is 10 + 25 + 5 = 40 units at 10 pixels each.
	if art.Stats.Pixels != 400 {
		t.Errorf("Stats.Pixels = %d, want 400", art.Stats.Pixels)
	}

	info := sess.Info()
	if info.Display != 40 || info.Pixels != 400 || info.Total != 600 {
		t.Errorf("Info() = %+v", info)
	}
	if info.Percent != "66.7" {
		t.Errorf("Info().Percent = %q, want 66.7", info.Percent)
	}

	mask, err := sess.Mask(ctx, pipeline.Options{})
	if err != nil {
		t.Fatalf("Mask() error = %v", err)
	}
	if mask.Stats.Revealed != 400 {
		t.Errorf("mask Revealed = %d, want 400", mask.Stats.Revealed)
	}
}

func TestClosedSession(t *testing.T) {
	sess, _ := newSession(t)
	if err := sess.Close(); err != nil {
		t.Fatal(err)
	}
	if !sess.IsExpired() {
		t.Error("closed session should report expired")
	}
	if _, err := sess.Frame(context.Background(), pipeline.Options{}); !errors.Is(err, errors.ErrCodeSessionExpired) {
		t.Errorf("Frame() on closed session error = %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestRecordRestore(t *testing.T) {
	sess, _ := newSession(t)
	if err := sess.SetCurrent(12); err != nil {
		t.Fatal(err)
	}
	rec := sess.Record()

	other, _ := newSession(t)
	other.scene.Project.ID = rec.ProjectID
	other.Restore(rec)
	if other.ActiveDay() != 3 || other.Current() != 12 {
		t.Errorf("restored day=%d current=%v", other.ActiveDay(), other.Current())
	}

	rec.ProjectID = "someone-else"
	rec.Current = 99
	other.Restore(rec)
	if other.Current() != 12 {
		t.Error("records of other projects must be ignored")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sess, _ := newSession(t)

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("Get(missing) error = %v", err)
	}
	if err := store.Set(ctx, sess); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, sess.ID)
	if err != nil || got != sess {
		t.Fatalf("Get() = %v, %v", got, err)
	}

	store.now = func() time.Time { return time.Now().Add(time.Hour) }
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, errors.ErrCodeSessionExpired) {
		t.Errorf("Get(expired) error = %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expired session should be removed, %d left", store.Len())
	}
	if !sess.IsExpired() {
		t.Error("removed session should be closed")
	}
}

func TestMemoryStoreCleanup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a, _ := newSession(t)
	b, _ := newSession(t)
	store.Set(ctx, a)
	store.Set(ctx, b)

	a.mu.Lock()
	a.expiresAt = time.Now().Add(-time.Second)
	a.mu.Unlock()

	n, err := store.Cleanup(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || store.Len() != 1 {
		t.Errorf("Cleanup() removed %d, %d left; want 1, 1", n, store.Len())
	}
	if _, err := store.Get(ctx, b.ID); err != nil {
		t.Errorf("live session lost: %v", err)
	}

	b.Touch()
	if err := store.Delete(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if !b.IsExpired() {
		t.Error("Delete should close the session")
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if rec, err := store.Get(ctx, "p1"); rec != nil || err != nil {
		t.Errorf("Get(missing) = %v, %v", rec, err)
	}

	want := Record{ID: "s1", ProjectID: "p1", ActiveDay: 4, Current: 1234, ExpiresAt: time.Now().Add(time.Hour).UTC()}
	if err := store.Set(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, "p1")
	if err != nil || got == nil {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	if got.ActiveDay != 4 || got.Current != 1234 || got.ID != "s1" {
		t.Errorf("Get() = %+v", got)
	}

	if err := store.Set(ctx, Record{ProjectID: "../escape"}); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("Set(traversal) error = %v", err)
	}

	expired := Record{ProjectID: "p2", ExpiresAt: time.Now().Add(-time.Hour)}
	if err := store.Set(ctx, expired); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(store.Dir(), "junk.json"), []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	n, err := store.Cleanup(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Cleanup() removed %d, want 2", n)
	}
	if rec, _ := store.Get(ctx, "p1"); rec == nil {
		t.Error("live record removed by Cleanup")
	}

	if err := store.Delete(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if rec, _ := store.Get(ctx, "p1"); rec != nil {
		t.Error("Delete did not remove the record")
	}
}
