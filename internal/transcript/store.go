// Package transcript holds the ordered, append-only session log of prompts,
// results, errors, and streamed output.
package transcript

import "sync"

// Kind 标识条目类型。
type Kind int

const (
	KindPrompt Kind = iota + 1
	KindResult
	KindError
	KindOutput
)

func (k Kind) String() string {
	switch k {
	case KindPrompt:
		return "prompt"
	case KindResult:
		return "result"
	case KindError:
		return "error"
	case KindOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Entry 是一条不可变的转录记录。
type Entry struct {
	Kind Kind
	Text string
}

func Prompt(text string) Entry { return Entry{Kind: KindPrompt, Text: text} }
func Result(text string) Entry { return Entry{Kind: KindResult, Text: text} }
func Error(text string) Entry  { return Entry{Kind: KindError, Text: text} }
func Output(text string) Entry { return Entry{Kind: KindOutput, Text: text} }

// Store 只追加；下标 i 在会话期间始终指向同一条目。
type Store struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewStore() *Store {
	return &Store{}
}

// Append 追加条目并返回其下标。
func (s *Store) Append(e Entry) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return len(s.entries) - 1
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// At 返回下标 i 的条目；越界时 ok 为 false。
func (s *Store) At(i int) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.entries) {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Entries returns a copy of all entries in transcript order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...)
}

// Last returns the most recent entry of the given kinds, newest first.
func (s *Store) Last(kinds ...Kind) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		for _, k := range kinds {
			if s.entries[i].Kind == k {
				return s.entries[i], true
			}
		}
	}
	return Entry{}, false
}
