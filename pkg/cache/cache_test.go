package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	keys := []string{"frame:dev:abc123", "mask:v0.4.0:def456", ""}
	for _, key := range keys {
		if err := c.Set(ctx, key, []byte("png"), time.Hour); err != nil {
			t.Errorf("Set(%q) error = %v", key, err)
		}
		data, hit, err := c.Get(ctx, key)
		if err != nil || hit || data != nil {
			t.Errorf("Get(%q) = %q, %v, %v; want a miss", key, data, hit, err)
		}
		if err := c.Delete(ctx, key); err != nil {
			t.Errorf("Delete(%q) error = %v", key, err)
		}
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	f1 := k.FrameKey("scene", FrameKeyOpts{Counter: 5000, Day: 1, Zoom: 1})
	f2 := k.FrameKey("scene", FrameKeyOpts{Counter: 5001, Day: 1, Zoom: 1})
	if f1 == f2 {
		t.Error("Different counters should produce different frame keys")
	}
	if f1 != k.FrameKey("scene", FrameKeyOpts{Counter: 5000, Day: 1, Zoom: 1}) {
		t.Error("FrameKey should be deterministic")
	}
	if f1 == k.FrameKey("other", FrameKeyOpts{Counter: 5000, Day: 1, Zoom: 1}) {
		t.Error("Different scenes should produce different frame keys")
	}
	if !strings.HasPrefix(f1, "frame:") || len(f1) != len("frame:")+64 {
		t.Errorf("FrameKey format unexpected: %s", f1)
	}

	m1 := k.MaskKey("scene", MaskKeyOpts{Pixels: 10, Color: "#000000"})
	m2 := k.MaskKey("scene", MaskKeyOpts{Pixels: 10, Color: "#FFFFFF"})
	if m1 == m2 {
		t.Error("Different colors should produce different mask keys")
	}

	e1 := k.ExportKey("scene", ExportKeyOpts{Format: "apng", FPS: 30})
	e2 := k.ExportKey("scene", ExportKeyOpts{Format: "gif", FPS: 30})
	if e1 == e2 || !strings.HasPrefix(e1, "export:apng:") {
		t.Errorf("ExportKey unexpected: %s, %s", e1, e2)
	}
}

func TestSceneHash(t *testing.T) {
	type fields struct{ Seed string }
	h1 := SceneHash(fields{"a"}, []byte("img"))
	if h1 != SceneHash(fields{"a"}, []byte("img")) {
		t.Error("SceneHash should be deterministic")
	}
	if h1 == SceneHash(fields{"b"}, []byte("img")) {
		t.Error("SceneHash should cover fields")
	}
	if h1 == SceneHash(fields{"a"}, []byte("img2")) {
		t.Error("SceneHash should cover image bytes")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "llumina:")

	opts := FrameKeyOpts{Counter: 1}
	if got, want := scoped.FrameKey("s", opts), "llumina:"+inner.FrameKey("s", opts); got != want {
		t.Errorf("ScopedKeyer FrameKey = %s, want %s", got, want)
	}
	if got := scoped.MaskKey("s", MaskKeyOpts{}); !strings.HasPrefix(got, "llumina:mask:") {
		t.Errorf("ScopedKeyer MaskKey should be prefixed: %s", got)
	}
	if got := scoped.ExportKey("s", ExportKeyOpts{Format: "gif"}); !strings.HasPrefix(got, "llumina:export:gif:") {
		t.Errorf("ScopedKeyer ExportKey should be prefixed: %s", got)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.MaskKey("s", MaskKeyOpts{Pixels: 1})
	if key != "prefix:"+NewDefaultKeyer().MaskKey("s", MaskKeyOpts{Pixels: 1}) {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Fatalf("empty cache Get = %v, %v", hit, err)
	}

	want := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	if err := c.Set(ctx, "k", want, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || !bytes.Equal(got, want) {
		t.Fatalf("Get = %v, %v, %v", got, hit, err)
	}

	if err := c.Set(ctx, "forever", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero TTL entry should not expire")
	}

	entries, size, err := c.Stats()
	if err != nil || entries != 2 || size != int64(8+len(want)+8+1) {
		t.Errorf("Stats = %d, %d, %v", entries, size, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting missing key: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted key still present")
	}

	n, err := c.Clear()
	if err != nil || n != 1 {
		t.Errorf("Clear = %d, %v", n, err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); hit {
		t.Error("cleared key still present")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte{1, 2}, 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry Get = %v, %v", hit, err)
	}
}

var (
	errRefused = errors.New("connection refused")
	errAuth    = errors.New("NOAUTH authentication required")
)

func TestRetryableError(t *testing.T) {
	// Retryable(nil) returns nil
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	// Non-nil error is wrapped
	err := Retryable(errRefused)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}

	// Error message is preserved
	if err.Error() != errRefused.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}

	// Non-wrapped errors are not retryable
	if IsRetryable(errAuth) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	// Success on first try
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return errAuth
	})
	if err != errAuth {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(errRefused)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should retry once: %d", calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(errRefused)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
