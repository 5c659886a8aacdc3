package tui

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/resourcehub/internal/browser"
	"github.com/matheuskafuri/resourcehub/internal/directory"
	"go.uber.org/zap"
)

type focusPane int

const (
	focusList focusPane = iota
	focusPreview
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeFilter
	modePresets
	modeHelp
)

type App struct {
	engine  *directory.Engine
	form    *directory.MemoryForm
	history *directory.MemoryHistory
	target  *viewTarget
	opener  browser.Opener

	controls   controls
	presetKeys []string

	output directory.Output
	seq    uint64
	cursor int
	focus  focusPane
	mode   mode

	width  int
	height int

	searchInput textinput.Model
	spinner     spinner.Model

	loading       bool
	previewScroll int
	presetCursor  int
	note          string
	err           error
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Source       directory.Source
	Client       *http.Client
	Presets      directory.Presets
	Renderer     directory.Renderer
	Debounce     time.Duration
	HeaderOffset int
	// Start is the initial location; its key parameter selects a preset.
	Start  *url.URL
	Opener browser.Opener
	Logger *zap.Logger
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Search resources..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	target := &viewTarget{}
	form := directory.NewMemoryForm(nil)
	history := directory.NewMemoryHistory(opts.Start)
	engine := directory.New(directory.Options{
		Target:       target,
		Form:         form,
		History:      history,
		Scroller:     target,
		Presets:      opts.Presets,
		Renderer:     opts.Renderer,
		Source:       opts.Source,
		Client:       opts.Client,
		Debounce:     opts.Debounce,
		HeaderOffset: opts.HeaderOffset,
		Logger:       opts.Logger,
	})

	return &App{
		engine:      engine,
		form:        form,
		history:     history,
		target:      target,
		opener:      opts.Opener,
		presetKeys:  engine.Presets().Keys(),
		searchInput: ti,
		spinner:     sp,
		loading:     true,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.startCmd(), a.spinner.Tick)
}

func (a *App) startCmd() tea.Cmd {
	engine, target := a.engine, a.target
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		// A load failure is rendered as a notice by the engine.
		_ = engine.Start(ctx)
		return startedMsg{rendered: target.snapshot(), controls: newControls(engine.Dataset())}
	}
}

// engineCmd runs an engine operation off the update loop and reports the
// resulting render. Renders commit through the program, so they must never
// run inside Update.
func (a *App) engineCmd(op func(*directory.Engine)) tea.Cmd {
	engine, target := a.engine, a.target
	return func() tea.Msg {
		op(engine)
		return target.snapshot()
	}
}

func (a *App) changed() tea.Cmd {
	return a.engineCmd(func(e *directory.Engine) { e.Changed(directory.ChangeControl) })
}

func openCmd(o browser.Opener, href string) tea.Cmd {
	return func() tea.Msg {
		if err := o.OpenURL(href); err != nil {
			return openErrMsg{err: err}
		}
		return openedMsg{url: href}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		a.note = ""
		return a.handleKey(msg)

	case startedMsg:
		a.loading = false
		a.controls = msg.controls
		a.syncSearch()
		a.applyRender(msg.rendered)
		return a, nil

	case renderedMsg:
		if a.mode != modeSearch {
			a.syncSearch()
		}
		a.applyRender(msg)
		return a, nil

	case openErrMsg:
		a.err = msg.err
		return a, nil

	case openedMsg:
		a.note = "opened " + truncateStr(msg.url, 40)
		return a, nil

	case spinner.TickMsg:
		if a.loading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a *App) applyRender(msg renderedMsg) {
	if msg.seq > a.seq {
		a.seq = msg.seq
		a.output = msg.out
		if a.cursor >= len(a.output.Cards) {
			a.cursor = max(0, len(a.output.Cards)-1)
		}
		a.previewScroll = 0
	}
	if msg.scroll {
		a.cursor = 0
		a.focus = focusList
	}
}

// syncSearch mirrors the form's query into the search box after the form
// was replaced by a preset, a reset or a history move.
func (a *App) syncSearch() {
	a.searchInput.SetValue(a.form.Get(directory.FieldQuery))
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.mode {
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeFilter:
		return a.handleFilterKey(msg)
	case modePresets:
		return a.handlePresetKey(msg)
	case modeHelp:
		if msg.String() == "?" || msg.String() == "esc" || msg.String() == "q" {
			a.mode = modeNormal
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "j", "down":
		if a.focus == focusList && a.cursor < len(a.output.Cards)-1 {
			a.cursor++
			a.previewScroll = 0
		} else if a.focus == focusPreview {
			a.previewScroll++
		}
		return a, nil
	case "k", "up":
		if a.focus == focusList && a.cursor > 0 {
			a.cursor--
			a.previewScroll = 0
		} else if a.focus == focusPreview && a.previewScroll > 0 {
			a.previewScroll--
		}
		return a, nil
	case "tab":
		if a.focus == focusList {
			a.focus = focusPreview
		} else {
			a.focus = focusList
		}
		return a, nil
	case "o", "enter":
		if card := a.selected(); card != nil {
			return a, openCmd(a.opener, card.Href)
		}
		return a, nil
	case "/":
		a.mode = modeSearch
		return a, a.searchInput.Focus()
	case "f":
		a.mode = modeFilter
		return a, nil
	case "p":
		a.mode = modePresets
		return a, nil
	case "[":
		if !a.history.Back() {
			return a, nil
		}
		return a, a.popState()
	case "]":
		if !a.history.Forward() {
			return a, nil
		}
		return a, a.popState()
	case "x":
		a.cursor = 0
		return a, a.reset()
	case "?":
		a.mode = modeHelp
		return a, nil
	}

	return a, nil
}

func (a *App) popState() tea.Cmd {
	a.cursor = 0
	return a.engineCmd(func(e *directory.Engine) { e.PopState() })
}

func (a *App) reset() tea.Cmd {
	return a.engineCmd(func(e *directory.Engine) { e.Reset() })
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.searchInput.SetValue("")
		a.searchInput.Blur()
		a.form.Set(directory.FieldQuery, "")
		a.cursor = 0
		return a, a.changed()
	case "enter":
		a.mode = modeNormal
		a.searchInput.Blur()
		a.cursor = 0
		return a, a.engineCmd(func(e *directory.Engine) { e.Flush() })
	}

	before := a.searchInput.Value()
	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	// Only re-render on value changes, not cursor moves.
	if v := a.searchInput.Value(); v != before {
		a.form.Set(directory.FieldQuery, v)
		a.engine.Changed(directory.ChangeText)
	}
	return a, cmd
}

func (a *App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f":
		a.mode = modeNormal
		return a, nil
	case "left", "h":
		a.controls.move(-1)
		return a, nil
	case "right", "l", "tab":
		a.controls.move(1)
		return a, nil
	case "down", "j", " ", "enter":
		if a.controls.cycle(a.form, 1) {
			a.cursor = 0
			return a, a.changed()
		}
		return a, nil
	case "up", "k":
		if a.controls.cycle(a.form, -1) {
			a.cursor = 0
			return a, a.changed()
		}
		return a, nil
	case "x":
		a.cursor = 0
		return a, a.reset()
	}
	return a, nil
}

func (a *App) handlePresetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "p", "q":
		a.mode = modeNormal
		return a, nil
	case "down", "j":
		if a.presetCursor < len(a.presetKeys)-1 {
			a.presetCursor++
		}
		return a, nil
	case "up", "k":
		if a.presetCursor > 0 {
			a.presetCursor--
		}
		return a, nil
	case "enter":
		a.mode = modeNormal
		if a.presetCursor >= len(a.presetKeys) {
			return a, nil
		}
		key := a.presetKeys[a.presetCursor]
		return a, a.engineCmd(func(e *directory.Engine) { e.ApplyPreset(key, true) })
	}
	return a, nil
}

func (a *App) selected() *directory.Card {
	if a.cursor < len(a.output.Cards) {
		return &a.output.Cards[a.cursor]
	}
	return nil
}

func (a *App) currentPreset() string {
	return a.history.Location().Query().Get(directory.PresetKeyParam)
}

func (a *App) withBottomBar(content string, hints string) string {
	bar := renderBottomBar(hints, a.width)
	lines := strings.Split(content, "\n")
	for len(lines) < a.height-1 {
		lines = append(lines, "")
	}
	if len(lines) >= a.height {
		lines = lines[:a.height-1]
	}
	lines = append(lines, bar)
	return strings.Join(lines, "\n")
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  resourcehub")
	}

	if a.mode == modePresets {
		return a.withBottomBar(renderPresetPicker(a.presetKeys, a.presetCursor, a.width, a.height-1), "↑/↓ choose  enter apply  esc back")
	}
	if a.mode == modeHelp {
		return a.withBottomBar(a.renderHelp(), "? close  q quit")
	}

	headerHeight := 1
	filterHeight := 2
	statusHeight := 1
	contentHeight := a.height - headerHeight - filterHeight - statusHeight - 4 // borders

	listWidth := int(float64(a.width) * 0.4)
	previewWidth := a.width - listWidth - 1

	if contentHeight < 3 {
		contentHeight = 3
	}

	headerLeft := headerStyle.Render("resourcehub")
	headerRight := headerCountStyle.Render(a.output.Count)
	headerGap := a.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight)
	if headerGap < 0 {
		headerGap = 0
	}
	header := headerLeft + fmt.Sprintf("%*s", headerGap, "") + headerRight

	filter := a.controls.render(a.form, a.mode == modeFilter, a.width)
	if a.mode == modeSearch {
		filter = a.searchInput.View()
	}
	pills := renderPills(a.output.Pills, a.width)

	innerListW := listWidth - 4 // border + padding
	listContent := renderList(a.output, a.cursor, contentHeight, innerListW)

	var listPane string
	if a.focus == focusList {
		listPane = listPaneActiveStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	} else {
		listPane = listPaneStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	}

	innerPreviewW := previewWidth - 4
	previewContent := renderPreview(a.selected(), innerPreviewW, contentHeight, a.previewScroll)

	var previewPane string
	if a.focus == focusPreview {
		previewPane = previewPaneActiveStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)
	} else {
		previewPane = previewPaneStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)

	status := renderStatusBar(statusInfo{
		count:   a.output.Count,
		preset:  a.currentPreset(),
		mode:    a.mode,
		loading: a.loading,
		note:    a.note,
	}, a.width)

	if a.loading {
		status = a.spinner.View() + " " + status
	}

	if a.err != nil {
		status = lipgloss.NewStyle().Foreground(colorAccent).Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, filter, pills, content, status)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("resourcehub")
	dim := helpDimStyle

	help := title + dim.Render(" · Keyboard Shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓     Move through results\n" +
		"  tab           Switch focus between list and details\n" +
		"  [ / ]         Back / forward through presets\n\n" +
		dim.Render("Actions") + "\n" +
		"  o, enter      Open resource in browser\n" +
		"  /             Search\n" +
		"  f             Filter mode\n" +
		"  p             Presets\n" +
		"  x             Reset all filters\n\n" +
		dim.Render("Filter Mode") + "\n" +
		"  ←/→, h/l     Move between controls\n" +
		"  ↑/↓, space    Change value\n" +
		"  esc, f        Exit filter mode\n\n" +
		dim.Render("General") + "\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c    Quit"

	card := helpCardStyle.Render(help)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the TUI application.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	defer app.engine.Close()
	p := tea.NewProgram(app, tea.WithAltScreen())
	app.target.attach(p.Send)
	_, err := p.Run()
	return err
}
