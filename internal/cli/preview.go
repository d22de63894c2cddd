package cli

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/matzehuels/llumina/pkg/filter"
	"github.com/matzehuels/llumina/pkg/pipeline"
	"github.com/matzehuels/llumina/pkg/session"
)

// Preview limits.
const (
	defaultThumbRows = 24
	minThumbRows     = 8
	maxStep          = 1_000_000
	zoomStep         = 0.1
	maxZoom          = 4.0
)

var (
	previewKeyStyle  = lipgloss.NewStyle().Foreground(colorBlue)
	previewHelpStyle = lipgloss.NewStyle().Foreground(colorDim)
	previewErrStyle  = lipgloss.NewStyle().Foreground(colorRed)
	previewBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
)

// previewCommand creates the interactive preview command.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		fresh    bool
		readOnly bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Scrub the reveal interactively in the terminal",
		Long: `Scrub the reveal interactively in the terminal.

Shows a thumbnail of the composed frame and updates it as you move the
counter, the active day or the zoom. Press enter to record the counter for
the active day in the project file.

Where you left off is remembered per project; pass --fresh to start at the
next unrecorded day instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPreview(cmd.Context(), fresh, readOnly)
		},
	}

	cmd.Flags().BoolVar(&fresh, "fresh", false, "ignore the saved position")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "never write committed days to the project file")

	return cmd
}

// runPreview opens a session, restores the saved position and runs the TUI.
func (c *CLI) runPreview(ctx context.Context, fresh, readOnly bool) error {
	scene, err := c.loadScene()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Building reveal order...")
	spinner.Start()
	sess, err := session.New(ctx, runner, scene, 0)
	if err != nil {
		spinner.StopWithError("Reveal order failed")
		return err
	}
	spinner.Stop()
	defer sess.Close()

	store := c.resumeStore()
	if store != nil && !fresh {
		if rec, err := store.Get(ctx, scene.Project.ID); err != nil {
			c.Logger.Warn("ignoring saved position", "error", err)
		} else if rec != nil {
			sess.Restore(*rec)
			c.Logger.Debug("resumed", "day", rec.ActiveDay, "counter", rec.Current)
		}
	}

	var save func() error
	if !readOnly {
		save = func() error { return c.saveProject(sess.Project()) }
	}

	m := newPreviewModel(ctx, sess, save)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}

	if store != nil {
		if err := store.Set(ctx, sess.Record()); err != nil {
			c.Logger.Warn("could not save position", "error", err)
		}
	}
	if fm, ok := final.(previewModel); ok && fm.commits > 0 {
		printSuccess("Recorded %d day(s) in %s", fm.commits, c.projectPath)
	}
	return nil
}

// resumeStore opens the preview position store, or returns nil when the
// config directory is unavailable.
func (c *CLI) resumeStore() *session.FileStore {
	dir, err := sessionDir()
	if err != nil {
		return nil
	}
	store, err := session.NewFileStore(dir)
	if err != nil {
		c.Logger.Debug("position store unavailable", "error", err)
		return nil
	}
	return store
}

// =============================================================================
// previewModel - Interactive reveal scrubbing
// =============================================================================

// frameMsg carries a rendered thumbnail back to the model.
type frameMsg struct {
	thumb  string
	info   session.Info
	cached bool
	err    error
}

// previewModel is the bubbletea model of the preview command.
type previewModel struct {
	ctx  context.Context
	sess *session.Session
	save func() error // nil when read-only

	opts   pipeline.Options // look options; day and counter come from sess
	step   float64
	aspect float64 // image width / height
	rows   int     // thumbnail height in terminal rows
	width  int     // terminal width

	thumb     string
	info      session.Info
	cached    bool
	status    string
	err       error
	rendering bool
	dirty     bool // state changed while rendering
	commits   int
}

func newPreviewModel(ctx context.Context, sess *session.Session, save func() error) previewModel {
	info := sess.Info()
	aspect := 9.0 / 16.0
	if p := sess.Project(); p.Resolution.Height > 0 {
		aspect = float64(p.Resolution.Width) / float64(p.Resolution.Height)
	}
	return previewModel{
		ctx:    ctx,
		sess:   sess,
		save:   save,
		step:   1,
		aspect: aspect,
		rows:   defaultThumbRows,
		info:   info,

		rendering: true,
	}
}

// Init renders the first frame; newPreviewModel starts out rendering.
func (m previewModel) Init() tea.Cmd {
	return m.render()
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.rows = max(msg.Height-8, minThumbRows)
		if cols := m.cols(); m.width > 0 && cols > m.width-2 {
			m.rows = max(int(float64(m.width-2)/(2*m.aspect)), minThumbRows)
		}
		return m.rerender()

	case frameMsg:
		m.rendering = false
		m.err = msg.err
		if msg.err == nil {
			m.thumb = msg.thumb
			m.info = msg.info
			m.cached = msg.cached
		}
		if m.dirty {
			m.dirty = false
			return m.rerender()
		}
	}
	return m, nil
}

func (m previewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "right", "l":
		return m.setCounter(m.sess.Current() + m.step)
	case "left", "h":
		return m.setCounter(max(m.sess.Current()-m.step, 0))
	case "0":
		return m.setCounter(0)

	case "up", "k":
		m.step = min(m.step*10, maxStep)
	case "down", "j":
		m.step = max(m.step/10, 1)

	case "]", "n":
		return m.switchDay(m.sess.ActiveDay() + 1)
	case "[", "p":
		return m.switchDay(max(m.sess.ActiveDay()-1, 1))

	case "+", "=":
		m.opts.Zoom = min(m.zoom()+zoomStep, maxZoom)
		return m.rerender()
	case "-":
		m.opts.Zoom = max(m.zoom()-zoomStep, 1)
		return m.rerender()

	case "t":
		m.opts.Tone = nextTone(m.opts.Tone)
		return m.rerender()
	case "g":
		m.opts.NoGlitch = !m.opts.NoGlitch
		return m.rerender()
	case "x":
		m.opts.HideText = !m.opts.HideText
		return m.rerender()

	case "enter", "c":
		return m.commit()
	}
	return m, nil
}

func (m previewModel) setCounter(v float64) (tea.Model, tea.Cmd) {
	if err := m.sess.SetCurrent(v); err != nil {
		m.err = err
		return m, nil
	}
	return m.rerender()
}

func (m previewModel) switchDay(day int) (tea.Model, tea.Cmd) {
	if err := m.sess.SwitchDay(day); err != nil {
		m.err = err
		return m, nil
	}
	return m.rerender()
}

func (m previewModel) commit() (tea.Model, tea.Cmd) {
	rec, err := m.sess.Commit(time.Now().UTC())
	if err != nil {
		m.err = err
		return m, nil
	}
	if m.save != nil {
		if err := m.save(); err != nil {
			m.err = err
			return m, nil
		}
		m.status = fmt.Sprintf("saved day %d = %s", rec.Day, formatCount(rec.Count))
	} else {
		m.status = fmt.Sprintf("day %d = %s (read-only, not saved)", rec.Day, formatCount(rec.Count))
	}
	m.commits++
	return m.rerender()
}

// rerender schedules a render, or marks the model dirty when one is in
// flight so only the latest state is rendered next.
func (m previewModel) rerender() (tea.Model, tea.Cmd) {
	m.info = m.sess.Info()
	if m.rendering {
		m.dirty = true
		return m, nil
	}
	m.rendering = true
	return m, m.render()
}

// render composes the current frame off the UI goroutine.
func (m previewModel) render() tea.Cmd {
	ctx, sess, opts := m.ctx, m.sess, m.opts
	cols, rows := m.cols(), m.rows
	return func() tea.Msg {
		art, err := sess.Frame(ctx, opts)
		if err != nil {
			return frameMsg{err: err}
		}
		img, err := imaging.Decode(bytes.NewReader(art.Data))
		if err != nil {
			return frameMsg{err: fmt.Errorf("decode frame: %w", err)}
		}
		return frameMsg{thumb: thumbnail(img, cols, rows), info: sess.Info(), cached: art.CacheHit}
	}
}

func (m previewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.info.Name))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  day %d", m.info.ActiveDay)))
	b.WriteString("\n")

	if m.thumb != "" {
		b.WriteString(previewBoxStyle.Render(m.thumb))
	} else {
		b.WriteString(StyleDim.Render("rendering..."))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s%%  %s %s\n",
		StyleDim.Render("counter"), StyleNumber.Render(formatCount(m.info.Current)),
		StyleDim.Render("shown"), StyleValue.Render(formatCount(m.info.Display)),
		StyleDim.Render("revealed"), StyleValue.Render(m.info.Percent),
		StyleDim.Render("step"), StyleValue.Render(formatCount(m.step))))
	b.WriteString(StyleDim.Render(fmt.Sprintf("zoom %.1f · tone %s · glitch %s · text %s",
		m.zoom(), toneLabel(m.opts.Tone), onOff(!m.opts.NoGlitch), onOff(!m.opts.HideText))))
	b.WriteString("\n")

	b.WriteString(help(
		"←/→", "counter", "↑/↓", "step", "[/]", "day", "+/-", "zoom",
		"t", "tone", "g", "glitch", "x", "text", "⏎", "record", "q", "quit"))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(previewErrStyle.Render(iconError + " " + m.err.Error()))
	case m.status != "":
		b.WriteString(StyleSuccess.Render(iconSuccess + " " + m.status))
	}
	return b.String()
}

func (m previewModel) zoom() float64 {
	if m.opts.Zoom < 1 {
		return 1
	}
	return m.opts.Zoom
}

// cols is the thumbnail width in terminal columns. A cell shows two
// vertically stacked pixels and is about twice as tall as wide.
func (m previewModel) cols() int {
	return max(int(float64(m.rows)*2*m.aspect+0.5), 1)
}

// =============================================================================
// Thumbnail Rendering
// =============================================================================

// thumbnail renders img as cols×rows terminal cells using upper half blocks:
// the foreground paints the top pixel and the background the bottom one.
func thumbnail(img image.Image, cols, rows int) string {
	if cols < 1 || rows < 1 {
		return ""
	}
	small := imaging.Resize(img, cols, rows*2, imaging.Box)

	var b strings.Builder
	for y := 0; y < rows; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < cols; x++ {
			top := small.NRGBAAt(x, 2*y)
			bottom := small.NRGBAAt(x, 2*y+1)
			b.WriteString(lipgloss.NewStyle().
				Foreground(hexColor(top.R, top.G, top.B)).
				Background(hexColor(bottom.R, bottom.G, bottom.B)).
				Render("▀"))
		}
	}
	return b.String()
}

func hexColor(r, g, b uint8) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b))
}

// nextTone cycles persona default → none → warm → cool → mono → default.
func nextTone(current string) string {
	if current == "" {
		return string(filter.Tones[0])
	}
	for i, t := range filter.Tones {
		if string(t) == current && i+1 < len(filter.Tones) {
			return string(filter.Tones[i+1])
		}
	}
	return ""
}

func toneLabel(t string) string {
	if t == "" {
		return "persona"
	}
	return t
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// help renders key/description pairs on one line.
func help(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, previewKeyStyle.Render(pairs[i])+" "+previewHelpStyle.Render(pairs[i+1]))
	}
	return strings.Join(parts, previewHelpStyle.Render("  "))
}
