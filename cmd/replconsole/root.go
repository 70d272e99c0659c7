package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"replconsole/internal/repl"
	"replconsole/internal/tui"
)

// isTerminal 判断是否使用全屏界面；测试中替换。
var isTerminal = func() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "replconsole",
		Short:         "An interactive console for a pluggable evaluator",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd, flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default: ~/.replconsole/config.toml)")
	pf.StringArrayVarP(&flags.overrides, "override", "c", nil, "override config value key=value (repeatable)")
	pf.StringVar(&flags.evaluator, "evaluator", "", "evaluator kind (lisp or shell)")
	pf.StringVar(&flags.logFile, "log-file", "", "log file path (default: logs/replconsole.log)")

	cmd.AddCommand(newExecCmd(flags), newConfigCmd(flags))
	return cmd
}

func runInteractive(cmd *cobra.Command, flags *rootFlags) error {
	a, err := newApp(flags)
	if err != nil {
		return err
	}
	defer a.Close()

	if !isTerminal() {
		ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt)
		defer stop()
		_, err := repl.Run(ctx, repl.Options{
			Session:     a.session,
			Bus:         a.bus,
			In:          cmd.InOrStdin(),
			Out:         cmd.OutOrStdout(),
			EchoPrompts: true,
		})
		return err
	}

	res, err := tui.Run(tui.Options{
		Session:           a.session,
		EvaluatorName:     a.cfg.Evaluator,
		StartupCode:       a.cfg.StartupCode,
		Banner:            fmt.Sprintf("%s evaluator ready. Press enter to run the prefilled command.", a.cfg.Evaluator),
		SettleDelay:       a.cfg.SettleDelay(),
		MaxSettleAttempts: a.cfg.MaxSettleAttempts,
		PastCommands:      a.past,
	})
	if err != nil {
		return err
	}
	log.WithField("entries", len(res.Entries)).Infof("session %s closed", res.SessionID)
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
