package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/llumina/pkg/cache"
	"github.com/matzehuels/llumina/pkg/pipeline"
	"github.com/matzehuels/llumina/pkg/project"
	"github.com/matzehuels/llumina/pkg/session"
)

func testSession(t *testing.T) *session.Session {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	p := project.New("preview")
	p.Resolution = project.Resolution{Width: 20, Height: 30}
	p.Days = []project.DayRecord{
		{ID: "a", Day: 1, Count: 10},
		{ID: "b", Day: 2, Count: 25},
	}
	scene, err := pipeline.NewScene(p, buf.Bytes())
	if err != nil {
		t.Fatalf("NewScene() error = %v", err)
	}
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, log.New(&bytes.Buffer{}))
	sess, err := session.New(context.Background(), runner, scene, 0)
	if err != nil {
		t.Fatalf("session.New() error = %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m previewModel, keys ...string) previewModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		m = next.(previewModel)
	}
	return m
}

func TestPreviewKeys(t *testing.T) {
	tests := []struct {
		name        string
		keys        []string
		wantDay     int
		wantCounter float64
		wantStep    float64
	}{
		{"starts at next day", nil, 3, 0, 1},
		{"counter steps", []string{"right", "right", "left"}, 3, 1, 1},
		{"counter floors at zero", []string{"left", "left"}, 3, 0, 1},
		{"step scales", []string{"up", "up", "right", "down", "right"}, 3, 110, 10},
		{"step floors at one", []string{"down", "down", "right"}, 3, 1, 1},
		{"previous day loads record", []string{"[", "["}, 1, 10, 1},
		{"next day", []string{"right", "]"}, 4, 0, 1},
		{"reset counter", []string{"up", "right", "0"}, 3, 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := testSession(t)
			m := press(t, newPreviewModel(context.Background(), sess, nil), tt.keys...)
			if got := sess.ActiveDay(); got != tt.wantDay {
				t.Errorf("ActiveDay() = %d, want %d", got, tt.wantDay)
			}
			if got := sess.Current(); got != tt.wantCounter {
				t.Errorf("Current() = %v, want %v", got, tt.wantCounter)
			}
			if m.step != tt.wantStep {
				t.Errorf("step = %v, want %v", m.step, tt.wantStep)
			}
		})
	}
}

func TestPreviewLookKeys(t *testing.T) {
	m := press(t, newPreviewModel(context.Background(), testSession(t), nil),
		"+", "+", "+", "-", "g", "x", "t", "t")

	if m.zoom() < 1.19 || m.zoom() > 1.21 {
		t.Errorf("zoom() = %v, want 1.2", m.zoom())
	}
	if !m.opts.NoGlitch || !m.opts.HideText {
		t.Errorf("NoGlitch/HideText = %v/%v, want true/true", m.opts.NoGlitch, m.opts.HideText)
	}
	if m.opts.Tone != "warm" {
		t.Errorf("Tone = %q, want warm", m.opts.Tone)
	}

	m = press(t, m, "-", "-", "-", "-")
	if m.zoom() != 1 {
		t.Errorf("zoom() = %v, want 1 after zooming out", m.zoom())
	}
}

func TestPreviewCommit(t *testing.T) {
	sess := testSession(t)
	saves := 0
	save := func() error {
		saves++
		return nil
	}

	m := press(t, newPreviewModel(context.Background(), sess, save), "up", "right", "right", "enter")

	if saves != 1 || m.commits != 1 {
		t.Errorf("saves = %d, commits = %d, want 1, 1", saves, m.commits)
	}
	if rec, ok := sess.Project().Day(3); !ok || rec.Count != 20 {
		t.Errorf("Day(3) = %+v, %v; want count 20", rec, ok)
	}
	if sess.ActiveDay() != 4 {
		t.Errorf("ActiveDay() = %d, want 4 after committing a new day", sess.ActiveDay())
	}
	if !strings.Contains(m.status, "day 3") {
		t.Errorf("status = %q, want mention of day 3", m.status)
	}
}

func TestPreviewReadOnlyCommit(t *testing.T) {
	sess := testSession(t)
	m := press(t, newPreviewModel(context.Background(), sess, nil), "right", "c")
	if m.commits != 1 {
		t.Errorf("commits = %d, want 1", m.commits)
	}
	if !strings.Contains(m.status, "read-only") {
		t.Errorf("status = %q, want read-only note", m.status)
	}
}

func TestPreviewQuit(t *testing.T) {
	m := newPreviewModel(context.Background(), testSession(t), nil)
	for _, k := range []string{"q", "esc"} {
		msg := keyMsg(k)
		if k == "esc" {
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("%s: Update() returned no command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: command did not quit", k)
		}
	}
}

func TestPreviewRender(t *testing.T) {
	sess := testSession(t)
	m := newPreviewModel(context.Background(), sess, nil)
	m = press(t, m, "up", "right", "right")

	msg, ok := m.Init()().(frameMsg)
	if !ok {
		t.Fatal("Init() command did not produce a frameMsg")
	}
	if msg.err != nil {
		t.Fatalf("render error = %v", msg.err)
	}
	if msg.info.Current != 20 || msg.info.Pixels != 200 {
		t.Errorf("info = %+v, want counter 20 and 200 pixels", msg.info)
	}

	// The keys above arrived while the first render was in flight.
	next, cmd := m.Update(msg)
	m = next.(previewModel)
	if m.thumb == "" {
		t.Error("thumbnail not stored")
	}
	if cmd == nil || !m.rendering || m.dirty {
		t.Errorf("pending changes should start a new render: cmd=%v rendering=%v dirty=%v", cmd != nil, m.rendering, m.dirty)
	}

	if !strings.Contains(m.View(), "preview") {
		t.Error("View() should show the project name")
	}
}

func TestPreviewWindowSize(t *testing.T) {
	m := newPreviewModel(context.Background(), testSession(t), nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: 40})
	m = next.(previewModel)
	if m.rows != 32 {
		t.Errorf("rows = %d, want 32", m.rows)
	}
	// 20x30 canvas: 32 rows * 2 px * 2/3
	if m.cols() != 43 {
		t.Errorf("cols() = %d, want 43", m.cols())
	}

	next, _ = m.Update(tea.WindowSizeMsg{Width: 22, Height: 40})
	m = next.(previewModel)
	if m.cols() > 20 {
		t.Errorf("cols() = %d, want <= 20 on a narrow terminal", m.cols())
	}
}

func TestThumbnail(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})

	tests := []struct {
		cols, rows int
	}{
		{4, 2},
		{1, 1},
		{8, 4},
	}
	for _, tt := range tests {
		out := thumbnail(img, tt.cols, tt.rows)
		if got := strings.Count(out, "▀"); got != tt.cols*tt.rows {
			t.Errorf("thumbnail(%d, %d) has %d cells, want %d", tt.cols, tt.rows, got, tt.cols*tt.rows)
		}
		if got := strings.Count(out, "\n"); got != tt.rows-1 {
			t.Errorf("thumbnail(%d, %d) has %d line breaks, want %d", tt.cols, tt.rows, got, tt.rows-1)
		}
	}

	if thumbnail(img, 0, 3) != "" {
		t.Error("thumbnail with zero columns should be empty")
	}
}

func TestNextTone(t *testing.T) {
	want := []string{"none", "warm", "cool", "mono", ""}
	tone := ""
	for _, w := range want {
		tone = nextTone(tone)
		if tone != w {
			t.Fatalf("nextTone() = %q, want %q", tone, w)
		}
	}
}
