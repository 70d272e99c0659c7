package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"replconsole/internal/events"
	"replconsole/internal/logger"
	"replconsole/internal/transcript"
)

var log = logger.Named("history")

// FileEntry 是历史文件中的一行。
type FileEntry struct {
	Text      string    `json:"text"`
	SessionID string    `json:"session_id,omitempty"`
	TS        time.Time `json:"ts"`
}

// File 以 JSONL 持久化跨会话提交过的命令，只用于搜索，不参与上下键导航。
type File struct {
	Path string
}

func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".replconsole", "history.jsonl"), nil
}

// OpenFile 返回 path 对应的历史文件；path 为空时使用默认路径。
func OpenFile(path string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return &File{Path: path}, nil
}

func (f *File) ensureDir() error {
	if f == nil || strings.TrimSpace(f.Path) == "" {
		return errors.New("history file path is empty")
	}
	return os.MkdirAll(filepath.Dir(f.Path), 0o755)
}

// Append 追加一条命令；空白命令被忽略。
func (f *File) Append(sessionID, text string) error {
	if f == nil {
		return errors.New("history file is nil")
	}
	if isBlank(text) {
		return nil
	}
	if err := f.ensureDir(); err != nil {
		return err
	}
	fh, err := os.OpenFile(f.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer fh.Close()

	data, err := json.Marshal(FileEntry{Text: text, SessionID: sessionID, TS: time.Now()})
	if err != nil {
		return err
	}
	_, err = fh.Write(append(data, '\n'))
	return err
}

// LoadTexts 按写入顺序返回最近 limit 条命令（limit<=0 表示全部）。
// 无法解析的行被跳过，文件不存在时返回空。
func (f *File) LoadTexts(limit int) ([]string, error) {
	if f == nil {
		return nil, errors.New("history file is nil")
	}
	if strings.TrimSpace(f.Path) == "" {
		return nil, errors.New("history file path is empty")
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var out []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e FileEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		if isBlank(e.Text) {
			continue
		}
		out = append(out, e.Text)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// Record 无损地订阅 bus，把每个 prompt 追加到文件，直到 bus 关闭。返回的
// 通道在消费者退出后关闭。
func (f *File) Record(bus *events.Bus, sessionID string) <-chan struct{} {
	done := make(chan struct{})
	ch := bus.SubscribeAll()
	go func() {
		defer close(done)
		for ev := range ch {
			if ev.Entry.Kind != transcript.KindPrompt {
				continue
			}
			if err := f.Append(sessionID, ev.Entry.Text); err != nil {
				log.Warnf("failed to append history (%s): %v", f.Path, err)
			}
		}
	}()
	return done
}
