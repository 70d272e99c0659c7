package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"replconsole/internal/console"
	"replconsole/internal/history"
	"replconsole/internal/logger"
	"replconsole/internal/session"
	"replconsole/internal/transcript"
	"replconsole/internal/tui/render"
)

var log = logger.Named("tui")

type Options struct {
	Session           *session.Session
	EvaluatorName     string
	StartupCode       string
	Banner            string
	SettleDelay       time.Duration
	MaxSettleAttempts int
	KeyMap            *KeyMap
	// PastCommands 是历史文件中的命令（旧到新），供 ctrl+r 搜索。
	PastCommands []string
	// Clipboard 默认写系统剪贴板。
	Clipboard func(text string) error
}

// consoleEventMsg 携带一个待分发的控制器事件（定时 settle、启动横幅）。
type consoleEventMsg struct {
	Event console.Event
}

type Model struct {
	textarea   textarea.Model
	viewport   render.TranscriptViewport
	session    *session.Session
	controller *console.Controller
	keys       KeyMap
	clipboard  func(string) error
	evaluator  string
	banner     string
	past       []string
	status     string
	width      int
	height     int
	// transcriptDirty 为 true 时在本次 Update 结束时重绘转录。
	transcriptDirty bool
}

func New(opts Options) *Model {
	ti := textarea.New()
	ti.Placeholder = "Enter a command…"
	ti.Prompt = render.PromptPrefix
	ti.CharLimit = 0
	ti.SetWidth(90)
	ti.SetHeight(1) // 默认单行，按需扩展
	ti.ShowLineNumbers = false
	// 上下键和回车交给控制器；换行只走 alt+enter。
	ti.KeyMap.InsertNewline.SetEnabled(false)
	ti.Focus()

	keys := DefaultKeyMap()
	if opts.KeyMap != nil {
		keys = *opts.KeyMap
	}
	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	m := &Model{
		textarea:        ti,
		viewport:        render.NewTranscriptViewport(90, 12),
		session:         opts.Session,
		keys:            keys,
		clipboard:       copyFn,
		evaluator:       opts.EvaluatorName,
		banner:          opts.Banner,
		past:            opts.PastCommands,
		width:           90,
		height:          24,
		transcriptDirty: true,
	}
	m.controller = console.New(opts.Session, editSurface{m: m}, &m.viewport, console.Options{
		SettleDelay:       opts.SettleDelay,
		MaxSettleAttempts: opts.MaxSettleAttempts,
	})
	if opts.StartupCode != "" {
		m.textarea.SetValue(opts.StartupCode)
		m.setComposerHeight()
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.banner != "" {
		banner := m.banner
		cmds = append(cmds, func() tea.Msg {
			return consoleEventMsg{Event: console.Output{Text: banner}}
		})
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		cmds = append(cmds, m.post(console.ScrollSettle{}))
		return m.finish(cmds...)
	case consoleEventMsg:
		cmds = append(cmds, m.dispatch(msg.Event)...)
		return m.finish(cmds...)
	case tea.MouseMsg:
		if cmd := m.viewport.HandleUpdate(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m.finish(cmds...)
	case tea.KeyMsg:
		m.status = ""
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Newline):
			m.textarea.InsertString("\n")
			m.setComposerHeight()
			return m.finish(cmds...)
		case key.Matches(msg, m.keys.PageUp):
			m.viewport.ViewUp()
			return m.finish(cmds...)
		case key.Matches(msg, m.keys.PageDown):
			m.viewport.ViewDown()
			return m.finish(cmds...)
		case key.Matches(msg, m.keys.Copy):
			m.copyLast()
			return m.finish(cmds...)
		case key.Matches(msg, m.keys.Search):
			m.searchHistory()
			return m.finish(cmds...)
		}

		evs, handled := console.HandleKey(m.keys.consoleKey(msg), editSurface{m: m})
		for _, ev := range evs {
			if _, ok := ev.(console.ScrollSettle); ok {
				cmds = append(cmds, m.post(ev))
				continue
			}
			cmds = append(cmds, m.dispatch(ev)...)
		}
		if handled {
			return m.finish(cmds...)
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.setComposerHeight()
	cmds = append(cmds, cmd)
	return m.finish(cmds...)
}

// dispatch 把事件交给控制器，并把效果翻译成 Model 状态或 tea.Cmd。
func (m *Model) dispatch(ev console.Event) []tea.Cmd {
	var cmds []tea.Cmd
	for _, eff := range m.controller.Dispatch(context.Background(), ev) {
		switch eff := eff.(type) {
		case console.RenderTranscript:
			m.refreshTranscript()
		case console.RenderEditSurface:
			m.setComposerHeight()
		case console.Schedule:
			next := eff.Event
			cmds = append(cmds, tea.Tick(eff.Delay, func(time.Time) tea.Msg {
				return consoleEventMsg{Event: next}
			}))
		}
	}
	return cmds
}

// post 在下一轮 Update 中分发事件。settle 要量的是 finish 刷新后的布局。
func (m *Model) post(ev console.Event) tea.Cmd {
	return tea.Tick(0, func(time.Time) tea.Msg {
		return consoleEventMsg{Event: ev}
	})
}

func (m *Model) finish(cmds ...tea.Cmd) (tea.Model, tea.Cmd) {
	if m.transcriptDirty {
		m.flushTranscript()
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	header := renderHeader(m.evaluator, m.session.ID(), m.width)
	chat := m.viewport.View()
	composer := renderPane(m.textarea.View(), m.width)
	status := statusLine(m.status, m.session.Store().Len(), m.width)
	hints := renderHints(m.keys, m.width)
	return lipgloss.JoinVertical(lipgloss.Left, header, chat, composer, status, hints)
}

// Session 返回模型驱动的会话。
func (m *Model) Session() *session.Session {
	return m.session
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	composerHeight := m.textarea.Height() + 2 // border
	headerHeight := 1
	statusHeight := 1
	hintsHeight := 1
	viewHeight := height - composerHeight - headerHeight - statusHeight - hintsHeight
	if viewHeight < 3 {
		viewHeight = 3
	}
	m.viewport.Resize(width, viewHeight)
	m.textarea.SetWidth(max(10, width-4))
	m.refreshTranscript()
}

func (m *Model) setComposerHeight() {
	lines := strings.Count(m.textarea.Value(), "\n") + 1
	if lines > 6 {
		lines = 6
	}
	if m.textarea.Height() != lines {
		m.textarea.SetHeight(lines)
		if m.width > 0 && m.height > 0 {
			m.resize(m.width, m.height)
		}
	}
}

func (m *Model) refreshTranscript() {
	m.transcriptDirty = true
}

func (m *Model) flushTranscript() {
	m.transcriptDirty = false
	m.viewport.SetLines(m.renderTranscriptLines())
}

func (m *Model) renderTranscriptLines() []string {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	return render.LinesToStrings(render.Entries(m.session.Store().Entries(), width))
}

// copyLast 把最近一条结果或输出写入剪贴板。
func (m *Model) copyLast() {
	e, ok := m.session.Store().Last(transcript.KindResult, transcript.KindOutput)
	if !ok {
		m.status = "nothing to copy"
		return
	}
	if err := m.clipboard(e.Text); err != nil {
		log.Warnf("clipboard write failed: %v", err)
		m.status = fmt.Sprintf("copy failed: %v", err)
		return
	}
	m.status = fmt.Sprintf("copied %s", e.Kind)
}

// searchHistory 用当前输入模糊搜索历史 prompt，命中时替换输入。
func (m *Model) searchHistory() {
	matches := history.Search(m.session.Store(), m.textarea.Value(), 1, m.past...)
	if len(matches) == 0 {
		m.status = "no matching command"
		return
	}
	editSurface{m: m}.SetText(matches[0])
	editSurface{m: m}.CaretToEnd()
}

var (
	accentColor = lipgloss.Color("#7D56F4")
	mutedColor  = lipgloss.Color("#7D7A85")
)

func renderHeader(evaluator, sessionID string, width int) string {
	left := lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("replconsole")
	info := []string{}
	if evaluator != "" {
		info = append(info, evaluator)
	}
	if len(sessionID) >= 8 {
		info = append(info, "session "+sessionID[:8])
	}
	right := lipgloss.NewStyle().Foreground(mutedColor).Render(strings.Join(info, " • "))
	return lipgloss.NewStyle().
		Padding(0, 1).
		Width(max(20, width)).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, left, lipgloss.NewStyle().PaddingLeft(2).Render(right)))
}

func renderPane(body string, width int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#5E6472")).
		Padding(0, 1)
	if width > 2 {
		style = style.Width(width - 2)
	}
	return style.Render(body)
}

func statusLine(status string, entries int, width int) string {
	parts := []string{fmt.Sprintf("%d entries", entries)}
	if status != "" {
		parts = append(parts, status)
	}
	return lipgloss.NewStyle().
		Foreground(mutedColor).
		Padding(0, 1).
		Width(max(20, width)).
		Render(strings.Join(parts, " • "))
}

func renderHints(keys KeyMap, width int) string {
	hints := []string{}
	for _, b := range keys.Hints() {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	return lipgloss.NewStyle().
		Foreground(mutedColor).
		Padding(0, 1).
		Width(max(20, width)).
		Render(strings.Join(hints, " • "))
}
