package console

// Key 是前端已经归类好的按键。
type Key int

const (
	KeyOther Key = iota
	KeySubmit
	KeyPrevious
	KeyNext
)

// HandleKey 把按键翻译成事件。任何按键都会先请求一次 ScrollSettle，让输入行
// 保持在视野内。handled 为 true 时前端应抑制编辑区的默认处理。
// 提交键会读取并清空编辑区。
func HandleKey(k Key, surface EditSurface) (evs []Event, handled bool) {
	evs = []Event{ScrollSettle{}}
	switch k {
	case KeySubmit:
		text := surface.Text()
		surface.SetText("")
		return append(evs, Submit{Text: text}), true
	case KeyPrevious:
		return append(evs, RecallPrevious{}), true
	case KeyNext:
		return append(evs, RecallNext{}), true
	default:
		return evs, false
	}
}
