package history

import (
	"github.com/sahilm/fuzzy"

	"replconsole/internal/transcript"
)

// Search 按模糊匹配对去重后的非空 prompt 排序；同分时较新的在前。
// 空 query 返回最近的 prompt。past 是按写入顺序排列的历史文件命令，排在
// 本会话 prompt 之后。不移动 NavigationCursor。
func Search(src Source, query string, limit int, past ...string) []string {
	prompts := distinctPrompts(src, past)
	if limit <= 0 || limit > len(prompts) {
		limit = len(prompts)
	}
	if isBlank(query) {
		return prompts[:limit]
	}
	matches := fuzzy.Find(query, prompts)
	if len(matches) < limit {
		limit = len(matches)
	}
	out := make([]string, 0, limit)
	for _, m := range matches[:limit] {
		out = append(out, m.Str)
	}
	return out
}

// distinctPrompts 从新到旧收集 prompt，重复的只保留最新一次。
func distinctPrompts(src Source, past []string) []string {
	seen := map[string]bool{}
	var out []string
	for i := src.Len() - 1; i >= 0; i-- {
		e, ok := src.At(i)
		if !ok || e.Kind != transcript.KindPrompt || isBlank(e.Text) || seen[e.Text] {
			continue
		}
		seen[e.Text] = true
		out = append(out, e.Text)
	}
	for i := len(past) - 1; i >= 0; i-- {
		if isBlank(past[i]) || seen[past[i]] {
			continue
		}
		seen[past[i]] = true
		out = append(out, past[i])
	}
	return out
}
