// Package shell evaluates each console command with the user's shell under a
// pseudo terminal and streams the terminal output to the session sink.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"

	"replconsole/internal/logger"
	"replconsole/internal/session"
)

var log = logger.Named("shell")

// drainTimeout 是进程退出后等待 pty 输出读尽的上限；后台进程可能一直持有终端。
const drainTimeout = 2 * time.Second

type Options struct {
	Shell   string
	Timeout time.Duration
	Workdir string
}

type Evaluator struct {
	out  io.Writer
	opts Options
}

func New(out io.Writer, opts Options) *Evaluator {
	if out == nil {
		out = io.Discard
	}
	if opts.Shell == "" {
		opts.Shell = "bash"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	return &Evaluator{out: out, opts: opts}
}

// Evaluate 以 `<shell> -lc command` 运行命令。输出在返回前全部写入 sink；
// 非零退出码是 Failure，成功时没有值。
func (e *Evaluator) Evaluate(ctx context.Context, command string) (session.Outcome, error) {
	if strings.TrimSpace(command) == "" {
		return session.NoValue(), nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.opts.Shell, "-lc", command)
	if e.opts.Workdir != "" {
		cmd.Dir = e.opts.Workdir
	}
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return session.Outcome{}, fmt.Errorf("failed to start pty: %w", err)
	}
	defer ptmx.Close()

	w := &crlfWriter{w: e.out}
	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(w, ptmx)
		close(done)
	}()

	start := time.Now()
	err = cmd.Wait()
	select {
	case <-done:
	case <-time.After(drainTimeout):
		log.Warnf("pty output still open %s after exit, closing", drainTimeout)
		_ = ptmx.Close()
		<-done
	}
	w.flush()

	log.WithFields(logger.Fields{
		"shell":       e.opts.Shell,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("shell command finished")

	if ctx.Err() == context.DeadlineExceeded {
		return session.Outcome{}, fmt.Errorf("command timed out after %s", e.opts.Timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return session.Outcome{}, fmt.Errorf("exit status %d", exitErr.ExitCode())
		}
		return session.Outcome{}, fmt.Errorf("command failed: %w", err)
	}
	return session.NoValue(), nil
}

// crlfWriter 把终端的 \r\n 还原成 \n。跨写入边界的 \r 会暂存到下一次写入。
type crlfWriter struct {
	w       io.Writer
	pending bool
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	buf := make([]byte, 0, len(p)+1)
	if c.pending {
		c.pending = false
		if len(p) == 0 || p[0] != '\n' {
			buf = append(buf, '\r')
		}
	}
	data := p
	if bytes.HasSuffix(data, []byte{'\r'}) {
		c.pending = true
		data = data[:len(data)-1]
	}
	buf = append(buf, bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))...)
	if len(buf) > 0 {
		if _, err := c.w.Write(buf); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (c *crlfWriter) flush() {
	if c.pending {
		c.pending = false
		_, _ = c.w.Write([]byte{'\r'})
	}
}
