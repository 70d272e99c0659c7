package tui

import "strings"

// editSurface 让控制器通过 Model 操作 textarea。
type editSurface struct {
	m *Model
}

func (s editSurface) Text() string {
	return s.m.textarea.Value()
}

func (s editSurface) SetText(text string) {
	s.m.textarea.SetValue(text)
	s.m.setComposerHeight()
}

// CaretToEnd 把光标移到最后一行的行尾。
func (s editSurface) CaretToEnd() {
	for s.m.textarea.Line() < strings.Count(s.m.textarea.Value(), "\n") {
		s.m.textarea.CursorDown()
	}
	s.m.textarea.CursorEnd()
}
