package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"replconsole/internal/repl"
)

var errEvaluationFailed = errors.New("evaluation failed")

func newExecCmd(flags *rootFlags) *cobra.Command {
	var echo bool
	cmd := &cobra.Command{
		Use:   "exec [command...]",
		Short: "Evaluate commands without the terminal UI",
		Long: "Evaluate the command given as arguments, or one command per line from stdin.\n" +
			"Exits non-zero when any command fails.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			var in io.Reader = cmd.InOrStdin()
			if len(args) > 0 {
				in = strings.NewReader(strings.Join(args, " "))
			}
			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt)
			defer stop()

			summary, err := repl.Run(ctx, repl.Options{
				Session:     a.session,
				Bus:         a.bus,
				In:          in,
				Out:         cmd.OutOrStdout(),
				EchoPrompts: echo,
			})
			if err != nil {
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%w: %d of %d commands", errEvaluationFailed, summary.Failed, summary.Submitted)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&echo, "echo", false, "print each command before its result")
	return cmd
}
