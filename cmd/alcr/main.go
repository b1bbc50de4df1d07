// Command alcr runs the custom Ansible lint rules over playbooks, task files
// and roles.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"alcr/internal/log"
)

// Exit codes.
const (
	exitOK         = 0
	exitError      = 1
	exitViolations = 2
)

func main() {
	workDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitError)
	}
	os.Exit(run(os.Args[1:], os.Environ(), workDir, os.Stdout, os.Stderr))
}

// app carries what every subcommand needs. Paths given on the command line
// are resolved against workDir; fs is rooted at "/".
type app struct {
	environ []string
	workDir string
	fs      billy.Filesystem
	stdout  io.Writer
	stderr  io.Writer

	logLevel string
}

// codeError makes a command exit with code. A nil err exits silently.
type codeError struct {
	code int
	err  error
}

func (e *codeError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *codeError) Unwrap() error { return e.err }

// run executes the command line and returns the process exit code.
// It is separated from main() to enable testing.
func run(args []string, environ []string, workDir string, stdout, stderr io.Writer) int {
	a := &app{
		environ: environ,
		workDir: workDir,
		fs:      osfs.New("/"),
		stdout:  stdout,
		stderr:  stderr,
	}

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	if err == nil {
		return exitOK
	}

	var ce *codeError
	if errors.As(err, &ce) {
		if ce.err != nil {
			fmt.Fprintln(stderr, "Error:", ce.err)
		}
		return ce.code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return exitError
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "alcr",
		Short:         "Custom lint rules for Ansible projects",
		Long:          "alcr checks Ansible playbooks for blocked modules and variable names violating a naming policy.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := a.logLevel
			if level == "" {
				level = log.LevelFromEnviron(a.environ)
			}
			log.Configure(log.Config{Level: level, Output: a.stderr})
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to $ALCR_LOG_LEVEL")

	root.AddCommand(
		a.lintCmd(),
		a.rulesCmd(),
		a.varsCmd(),
		a.baselineCmd(),
	)
	return root
}
