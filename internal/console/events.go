package console

import (
	"fmt"
	"time"
)

// Event 是控制器处理的输入事件。
type Event interface {
	isEvent()
}

// Submit 提交一条命令。
type Submit struct{ Text string }

// Output 在求值之外追加一段输出（例如启动横幅）。
type Output struct{ Text string }

// RecallPrevious 回溯到更早的 prompt。
type RecallPrevious struct{}

// RecallNext 前进到更新的 prompt。
type RecallNext struct{}

// ScrollSettle 请求把视口滚到底部。Attempt 从 0 开始计数。
type ScrollSettle struct{ Attempt int }

func (Submit) isEvent()         {}
func (Output) isEvent()         {}
func (RecallPrevious) isEvent() {}
func (RecallNext) isEvent()     {}
func (ScrollSettle) isEvent()   {}

func (e Submit) String() string       { return fmt.Sprintf("Submit(%q)", e.Text) }
func (e Output) String() string       { return fmt.Sprintf("Output(%q)", e.Text) }
func (RecallPrevious) String() string { return "RecallPrevious" }
func (RecallNext) String() string     { return "RecallNext" }
func (e ScrollSettle) String() string { return fmt.Sprintf("ScrollSettle(%d)", e.Attempt) }

// Effect 是 Dispatch 要求前端执行的动作。
type Effect interface {
	isEffect()
}

// RenderTranscript 要求重绘整个转录。
type RenderTranscript struct{}

// RenderEditSurface 要求重绘编辑区。
type RenderEditSurface struct{}

// Schedule 要求在 Delay 之后重新投递 Event。
type Schedule struct {
	Delay time.Duration
	Event Event
}

func (RenderTranscript) isEffect()  {}
func (RenderEditSurface) isEffect() {}
func (Schedule) isEffect()          {}
