// Command shelldemo is a thin cobra-based harness around the shellexec
// module: it reads a script from a file argument or stdin, parses it with
// the reference parser (refparser — an external collaborator per spec
// §1, not part of the module's core), executes it, and exits with the
// resulting code. Grounded on the teacher's cobra root-command setup
// (runtime/cli/harness.go's NewCLIHarness) adapted from a generated
// multi-command CLI to a single-script runner.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/opal-lang/shellexec"
	"github.com/opal-lang/shellexec/executor"
	"github.com/opal-lang/shellexec/killsignal"
	"github.com/opal-lang/shellexec/refparser"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run())
}

func run() int {
	var debug bool
	var cwd string

	rootCmd := &cobra.Command{
		Use:          "shelldemo [script-file]",
		Short:        "Reference harness for the shellexec embeddable shell executor",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "emit xtrace-style diagnostics to stderr")
	rootCmd.PersistentFlags().StringVar(&cwd, "cwd", "", "working directory to execute in (default: current directory)")

	exitCode := 0
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		var src []byte
		var err error
		if len(args) == 1 {
			src, err = os.ReadFile(args[0])
		} else {
			src, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "shelldemo: %v\n", err)
			exitCode = 2
			return nil
		}

		dir := cwd
		if dir == "" {
			dir, err = os.Getwd()
			if err != nil {
				fmt.Fprintf(os.Stderr, "shelldemo: %v\n", err)
				exitCode = 2
				return nil
			}
		}

		list, err := refparser.Parse(string(src))
		if err != nil {
			fmt.Fprintf(os.Stderr, "shelldemo: parse error: %v\n", err)
			exitCode = 2
			return nil
		}

		killSig := killsignal.New()
		notifyCh := make(chan os.Signal, 1)
		osSignalNotify(notifyCh)
		go func() {
			for sig := range notifyCh {
				killSig.Send(executor.KillSignalKindFromOS(sig))
			}
		}()

		opts := shellexec.Options{
			Cwd:        dir,
			KillSignal: killSig,
			Stdin:      os.Stdin,
			Stdout:     os.Stdout,
			Stderr:     os.Stderr,
		}
		if debug {
			opts.Debug = os.Stderr
		}

		code, err := shellexec.Execute(list, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "shelldemo: %v\n", err)
			exitCode = 2
			return nil
		}
		exitCode = code
		return nil
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return exitCode
}

func osSignalNotify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
