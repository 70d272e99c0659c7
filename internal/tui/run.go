package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"replconsole/internal/transcript"
)

// Result 返回 TUI 运行后的必要信息。
type Result struct {
	SessionID string
	Entries   []transcript.Entry
}

// Run 封装 Bubble Tea 入口，返回最终的会话转录。
func Run(opts Options) (Result, error) {
	if opts.Session == nil {
		return Result{}, errors.New("tui: session is required")
	}
	program := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	m, err := program.Run()
	if err != nil {
		return Result{}, err
	}
	tuiModel, ok := m.(*Model)
	if !ok {
		return Result{}, errors.New("unexpected tui model")
	}
	return Result{
		SessionID: tuiModel.Session().ID(),
		Entries:   tuiModel.Session().Store().Entries(),
	}, nil
}
