package events

import (
	"io"
	"sync"

	"replconsole/internal/logger"
	"replconsole/internal/transcript"
)

// ConversationLog 订阅 Bus，把每条转录条目写入独立的会话日志。
type ConversationLog struct {
	entry  *logger.LogEntry
	closer io.Closer
	done   chan struct{}
	once   sync.Once
}

// NewConversationLog 打开 path 对应的日志文件；path 为空或打开失败时退回全局 logger。
func NewConversationLog(path, sessionID string) *ConversationLog {
	entry, closer := newComponentLogger("conversation", path)
	if sessionID != "" {
		entry = entry.WithField("session_id", sessionID)
	}
	return &ConversationLog{entry: entry, closer: closer, done: make(chan struct{})}
}

// NewConversationLogWith 使用给定的 logger，便于测试。
func NewConversationLogWith(entry *logger.LogEntry) *ConversationLog {
	return &ConversationLog{entry: entry, done: make(chan struct{})}
}

// Attach 在后台无损地消费 bus 上的条目，直到 bus 关闭。
func (c *ConversationLog) Attach(bus *Bus) {
	ch := bus.SubscribeAll()
	go func() {
		defer close(c.done)
		for ev := range ch {
			c.Record(ev.Index, ev.Entry)
		}
	}()
}

// Record 写入一条条目，index 是条目在转录中的下标。
func (c *ConversationLog) Record(index int, e transcript.Entry) {
	if c.entry == nil {
		return
	}
	c.entry.WithFields(logger.Fields{
		"kind":  e.Kind.String(),
		"index": index,
	}).Info(e.Text)
}

// Wait 等待 Attach 启动的消费者退出（bus 关闭后）。
func (c *ConversationLog) Wait() {
	<-c.done
}

func (c *ConversationLog) Close() error {
	var err error
	c.once.Do(func() {
		if c.closer != nil {
			err = c.closer.Close()
		}
	})
	return err
}

func newComponentLogger(component, path string) (*logger.LogEntry, io.Closer) {
	if path == "" {
		return logger.Named(component), nil
	}
	entry, closer, _, err := logger.SetupComponentFile(component, path)
	if err != nil {
		log.Warnf("failed to set up %s log file (%s): %v", component, path, err)
		return logger.Named(component), nil
	}
	return entry, closer
}
