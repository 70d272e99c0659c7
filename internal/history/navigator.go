// Package history recalls earlier prompts from the transcript into the edit
// surface.
package history

import (
	"strings"

	"replconsole/internal/transcript"
)

// Source 是只读的转录视图。
type Source interface {
	Len() int
	At(i int) (transcript.Entry, bool)
}

// Navigator 持有 NavigationCursor。cursor 未设置表示位于尚未提交的编辑行。
type Navigator struct {
	src    Source
	cursor int
	set    bool
}

func NewNavigator(src Source) *Navigator {
	return &Navigator{src: src}
}

// Cursor 返回当前游标；未处于回溯状态时 ok 为 false。
func (n *Navigator) Cursor() (int, bool) {
	return n.cursor, n.set
}

// Reset 回到编辑行，下一次回溯从转录末尾开始。
func (n *Navigator) Reset() {
	n.cursor = 0
	n.set = false
}

// RecallPrevious 向前（更早）查找最近的非空 prompt。找不到时状态不变。
func (n *Navigator) RecallPrevious() (string, bool) {
	start := n.src.Len()
	if n.set {
		start = n.cursor
	}
	for idx := start - 1; idx >= 0; idx-- {
		if text, ok := n.recallable(idx); ok {
			n.cursor, n.set = idx, true
			return text, true
		}
	}
	return "", false
}

// RecallNext 向后（更新）查找下一个非空 prompt。扫描耗尽时保持原位，
// 不会回到编辑行。
func (n *Navigator) RecallNext() (string, bool) {
	if !n.set {
		return "", false
	}
	for idx := n.cursor + 1; idx < n.src.Len(); idx++ {
		if text, ok := n.recallable(idx); ok {
			n.cursor = idx
			return text, true
		}
	}
	return "", false
}

func (n *Navigator) recallable(idx int) (string, bool) {
	e, ok := n.src.At(idx)
	if !ok || e.Kind != transcript.KindPrompt || isBlank(e.Text) {
		return "", false
	}
	return e.Text, true
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
