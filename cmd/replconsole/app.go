package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"replconsole/internal/config"
	"replconsole/internal/evaluator"
	"replconsole/internal/events"
	"replconsole/internal/history"
	"replconsole/internal/logger"
	"replconsole/internal/session"
	"replconsole/internal/sink"
)

type rootFlags struct {
	configPath string
	overrides  []string
	evaluator  string
	logFile    string
}

// app 持有一次运行需要的会话及其日志资源。
type app struct {
	cfg     config.Config
	session *session.Session
	bus     *events.Bus
	convo   *events.ConversationLog
	logFile io.Closer

	// past 是启动时从历史文件读到的命令。
	past        []string
	historyDone <-chan struct{}
}

func newApp(flags *rootFlags) (*app, error) {
	logger.Configure()

	cfg, cfgErr := config.Load(flags.configPath)
	if cfgErr != nil {
		cfg = config.Default()
	}
	cfg = config.ApplyKVOverrides(cfg, flags.overrides)
	if v := strings.TrimSpace(flags.evaluator); v != "" {
		cfg.Evaluator = v
	}

	a := &app{cfg: cfg}
	logPath := firstNonEmpty(flags.logFile, cfg.LogFile, logger.DefaultLogPath)
	if f, _, err := logger.SetupFile(logPath); err != nil {
		log.Warnf("failed to initialize log file (%s): %v", logPath, err)
	} else {
		a.logFile = f
	}
	if cfgErr != nil {
		log.Warnf("failed to load config (%s): %v; using defaults", flags.configPath, cfgErr)
	}

	a.bus = events.NewBus(0)
	s, err := session.New(evaluator.Factory(cfg.Evaluator, cfg), session.Options{
		Sink: sink.Options{SplitLines: cfg.SplitLines},
		Bus:  a.bus,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.session = s

	convoPath := filepath.Join(filepath.Dir(logPath), filepath.Base(logger.DefaultConversationLogPath))
	a.convo = events.NewConversationLog(convoPath, s.ID())
	a.convo.Attach(a.bus)

	if hf, err := history.OpenFile(cfg.HistoryFile); err != nil {
		log.Warnf("history file disabled: %v", err)
	} else {
		if a.past, err = hf.LoadTexts(cfg.HistoryLimit); err != nil {
			log.Warnf("failed to load history (%s): %v", hf.Path, err)
		}
		a.historyDone = hf.Record(a.bus, s.ID())
	}

	log.WithFields(logger.Fields{
		"session_id": s.ID(),
		"evaluator":  cfg.Evaluator,
		"config":     cfg.Source,
	}).Info("session started")
	return a, nil
}

// Close 关闭总线并等待会话日志写完，再释放日志文件。
func (a *app) Close() {
	if a.bus != nil {
		a.bus.Close()
	}
	if a.historyDone != nil {
		<-a.historyDone
	}
	if a.convo != nil {
		a.convo.Wait()
		if err := a.convo.Close(); err != nil {
			log.Warnf("failed to close conversation log: %v", err)
		}
	}
	if a.logFile != nil {
		logger.Root().SetOutput(os.Stderr)
		_ = a.logFile.Close()
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
