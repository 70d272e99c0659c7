package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"replconsole/internal/console"
	"replconsole/internal/events"
	"replconsole/internal/logger"
	"replconsole/internal/session"
	"replconsole/internal/transcript"
)

var log = logger.Named("repl")

// maxLineBytes 限制单行输入大小。
const maxLineBytes = 1 << 20

type Options struct {
	Session *session.Session
	// Bus 非空时输出随追加实时打印，否则在每次提交完成后打印。
	Bus         *events.Bus
	In          io.Reader
	Out         io.Writer
	Width       int
	Styled      bool
	EchoPrompts bool
}

// Summary 汇总一次行模式运行。
type Summary struct {
	Submitted int
	Failed    int
}

// Run 逐行读取 In 并提交给会话，直到 EOF。以反斜杠结尾的行与下一行拼成
// 一条多行命令；空白行被跳过。
func Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Session == nil {
		return Summary{}, errors.New("repl: session is required")
	}
	if opts.In == nil {
		return Summary{}, errors.New("repl: input is required")
	}

	store := opts.Session.Store()
	start := store.Len()
	renderer := NewRenderer(RendererOptions{
		Store:       store,
		Scrollback:  NewScrollback(ScrollbackOptions{Writer: opts.Out, Width: opts.Width, Styled: opts.Styled}),
		EchoPrompts: opts.EchoPrompts,
	})

	stop := make(chan struct{})
	var watchers sync.WaitGroup
	if opts.Bus != nil {
		wake := opts.Bus.Subscribe()
		watchers.Add(1)
		go func() {
			defer watchers.Done()
			renderer.Watch(wake, stop)
		}()
	}

	surface := &lineSurface{}
	controller := console.New(opts.Session, surface, nil, console.Options{})
	inbox := events.NewInbox[console.Event](0)
	loopErr := make(chan error, 1)
	go func() {
		loopErr <- console.Loop(ctx, controller, inbox, renderer)
	}()

	submitted, readErr := feed(ctx, opts.In, surface, inbox)
	inbox.Close()
	err := <-loopErr
	close(stop)
	watchers.Wait()
	renderer.Finish()

	summary := Summary{Submitted: submitted}
	for _, e := range store.Entries()[start:] {
		if e.Kind == transcript.KindError {
			summary.Failed++
		}
	}
	log.WithFields(logger.Fields{
		"session_id": opts.Session.ID(),
		"submitted":  summary.Submitted,
		"failed":     summary.Failed,
	}).Info("line mode finished")

	if readErr != nil {
		return summary, readErr
	}
	return summary, err
}

func feed(ctx context.Context, in io.Reader, surface *lineSurface, inbox *events.Inbox[console.Event]) (int, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	submitted := 0
	var pending strings.Builder
	submit := func() error {
		text := pending.String()
		pending.Reset()
		if strings.TrimSpace(text) == "" {
			return nil
		}
		surface.SetText(text)
		evs, _ := console.HandleKey(console.KeySubmit, surface)
		for _, ev := range evs {
			if err := inbox.Post(ctx, ev); err != nil {
				return err
			}
		}
		submitted++
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasSuffix(line, `\`) {
			pending.WriteString(strings.TrimSuffix(line, `\`))
			pending.WriteString("\n")
			continue
		}
		pending.WriteString(line)
		if err := submit(); err != nil {
			return submitted, err
		}
	}
	if err := scanner.Err(); err != nil {
		return submitted, fmt.Errorf("read input: %w", err)
	}
	if pending.Len() > 0 {
		if err := submit(); err != nil {
			return submitted, err
		}
	}
	return submitted, nil
}

// lineSurface 是行模式下的编辑区：只保存当前一行文本。
type lineSurface struct {
	mu   sync.Mutex
	text string
}

func (s *lineSurface) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

func (s *lineSurface) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
}

func (s *lineSurface) CaretToEnd() {}
