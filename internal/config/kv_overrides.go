package config

import (
	"strconv"
	"strings"
)

// ApplyKVOverrides applies free-form -c key=value overrides. Unknown keys and
// unparsable values are ignored.
func ApplyKVOverrides(cfg Config, overrides []string) Config {
	for _, raw := range overrides {
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		switch key {
		case "evaluator":
			cfg.Evaluator = val
		case "startup_code", "startup-code":
			cfg.StartupCode = val
		case "split_lines", "split-lines":
			if b, err := strconv.ParseBool(val); err == nil {
				cfg.SplitLines = b
			}
		case "shell":
			cfg.Shell = val
		case "shell_timeout_seconds", "shell-timeout":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				cfg.ShellTimeoutSeconds = n
			}
		case "settle_delay_ms", "settle-delay":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				cfg.SettleDelayMs = n
			}
		case "max_settle_attempts", "max-settle-attempts":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				cfg.MaxSettleAttempts = n
			}
		case "log_file", "log-file":
			cfg.LogFile = val
		case "history_file", "history-file":
			cfg.HistoryFile = val
		case "history_limit", "history-limit":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				cfg.HistoryLimit = n
			}
		}
	}
	return cfg
}
