package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/fibops/config"
	"github.com/jonwraymond/fibops/fib"
)

func newEvalCmd(cfgFile *string) *cobra.Command {
	var showStats bool

	cmd := &cobra.Command{
		Use:   "eval N...",
		Short: "Evaluate Fibonacci numbers locally",
		Example: `  fibops eval 10
  fibops eval 0 1 20 100 --stats
  fibops eval -- -5   # negative indices read as flags without --`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgFile, nil)
			if err != nil {
				return err
			}

			ev := newEvaluator(cfg)
			out := cmd.OutOrStdout()
			for _, arg := range args {
				n, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("%w: %q is not an integer", fib.ErrInvalidArgument, arg)
				}
				v, err := ev.Evaluate(n)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "fib(%d) = %s\n", n, v)
			}

			if showStats {
				st := ev.Stats()
				fmt.Fprintf(out, "hits=%d misses=%d steps=%d entries=%d\n", st.Hits, st.Misses, st.Steps, st.Entries)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showStats, "stats", false, "print memo table statistics")
	cmd.SetFlagErrorFunc(evalFlagError)
	return cmd
}

// evalFlagError reports a negative index that pflag took for a shorthand
// flag ("unknown shorthand flag: '5' in -5") as an invalid argument.
func evalFlagError(_ *cobra.Command, err error) error {
	if _, tok, ok := strings.Cut(err.Error(), " in "); ok {
		if _, convErr := strconv.Atoi(tok); convErr == nil {
			return fmt.Errorf("%w: %s is negative", fib.ErrInvalidArgument, tok)
		}
	}
	return err
}
