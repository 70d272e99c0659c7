package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultStartupCode 预填在输入框中的示例命令。
const DefaultStartupCode = `(range (i (0 100)) (println "{i}"))`

// EnvEvaluator 覆盖配置中的 evaluator。
const EnvEvaluator = "REPLCONSOLE_EVALUATOR"

// Config is the persisted config file schema.
type Config struct {
	Evaluator           string `toml:"evaluator"`
	StartupCode         string `toml:"startup_code"`
	SplitLines          bool   `toml:"split_lines"`
	Shell               string `toml:"shell"`
	ShellTimeoutSeconds int    `toml:"shell_timeout_seconds"`
	SettleDelayMs       int    `toml:"settle_delay_ms"`
	MaxSettleAttempts   int    `toml:"max_settle_attempts"`
	LogFile             string `toml:"log_file"`
	HistoryFile         string `toml:"history_file"`
	HistoryLimit        int    `toml:"history_limit"`
	Source              string `toml:"-"`
}

func Default() Config {
	return Config{
		Evaluator:           "lisp",
		StartupCode:         DefaultStartupCode,
		Shell:               "bash",
		ShellTimeoutSeconds: 120,
		SettleDelayMs:       30,
		MaxSettleAttempts:   20,
		HistoryLimit:        1000,
	}
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".replconsole", "config.toml")
}

// Load 读取 TOML 配置；文件不存在时返回默认值。
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, errors.New("config path is empty and $HOME is not set")
	}
	cfg.Source = path

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return applyEnv(cfg), nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return cfg, err
	}
	return applyEnv(cfg).normalized(), nil
}

func applyEnv(cfg Config) Config {
	if env := strings.TrimSpace(os.Getenv(EnvEvaluator)); env != "" {
		cfg.Evaluator = env
	}
	return cfg
}

// normalized 把非法数值替换回默认值。
func (c Config) normalized() Config {
	def := Default()
	if strings.TrimSpace(c.Evaluator) == "" {
		c.Evaluator = def.Evaluator
	}
	if strings.TrimSpace(c.Shell) == "" {
		c.Shell = def.Shell
	}
	if c.ShellTimeoutSeconds <= 0 {
		c.ShellTimeoutSeconds = def.ShellTimeoutSeconds
	}
	if c.SettleDelayMs <= 0 {
		c.SettleDelayMs = def.SettleDelayMs
	}
	if c.MaxSettleAttempts <= 0 {
		c.MaxSettleAttempts = def.MaxSettleAttempts
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = def.HistoryLimit
	}
	return c
}

// SettleDelay 返回滚动收敛重试的间隔。
func (c Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

// ShellTimeout 返回单条 shell 命令的超时。
func (c Config) ShellTimeout() time.Duration {
	return time.Duration(c.ShellTimeoutSeconds) * time.Second
}
