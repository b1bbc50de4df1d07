package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"alcr/internal/baseline"
	"alcr/internal/lint"
	"alcr/internal/log"
	"alcr/internal/report"
	"alcr/internal/rules"
)

type lintOptions struct {
	rules         []string
	configFile    string
	format        string
	baseline      string
	writeBaseline string
}

func (a *app) lintCmd() *cobra.Command {
	var opts lintOptions

	cmd := &cobra.Command{
		Use:   "lint [PATH...]",
		Short: "Lint playbooks, task files and directories",
		Long: `Lint the given playbooks, task files and directories (default: the
current directory). Directories are searched for *.yml and *.yaml files.

Exit status is 0 when no violations are found, 2 when violations are
reported and 1 on configuration or I/O errors.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLint(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&opts.rules, "rule", "r", nil, "rule ID or name to run (repeatable; default all)")
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (default .ansible-lint when present)")
	flags.StringVarP(&opts.format, "format", "f", string(report.FormatNameCLI), "output format: cli, ci or json")
	flags.StringVar(&opts.baseline, "baseline", "", "report only violations not accepted by this baseline")
	flags.StringVar(&opts.writeBaseline, "write-baseline", "", "accept every current violation into this baseline")
	return cmd
}

func (a *app) runLint(cmd *cobra.Command, args []string, opts lintOptions) error {
	logger := log.WithComponent("cli")

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	reg, err := a.registry(opts.configFile)
	if err != nil {
		return err
	}
	selected, err := reg.Select(opts.rules)
	if err != nil {
		return err
	}

	store := baseline.NewStore(a.fs, a.abs(baseline.ResolveDir(a.environ)))

	runner := &lint.Runner{FS: a.fs, Rules: selected, Base: a.workDir}
	var accepted baseline.Baseline
	if opts.baseline != "" {
		accepted, err = store.Load(opts.baseline)
		if err != nil {
			return err
		}
		runner.Accepted = accepted.Accepted()
	}

	if len(args) == 0 {
		args = []string{"."}
	}
	paths := make([]string, len(args))
	for i, p := range args {
		paths[i] = a.abs(p)
	}

	// Per-file errors do not stop the run; they are reported after the
	// violations and turn the exit status into 1.
	result, runErr := runner.Run(cmd.Context(), paths)

	if opts.writeBaseline != "" {
		all := append(append([]rules.Violation{}, result.Violations...), result.Suppressed...)
		b := baseline.New(opts.writeBaseline, all, time.Now())
		if err := store.Save(b); err != nil {
			return fmt.Errorf("cannot save baseline: %w", err)
		}
		fmt.Fprintf(a.stderr, "Baseline '%s' saved with %d accepted violation(s)\n", b.Name, len(b.Entries))
	}

	if opts.baseline != "" {
		all := append(append([]rules.Violation{}, result.Violations...), result.Suppressed...)
		if fixed := baseline.Compare(accepted, all).Fixed; len(fixed) > 0 {
			logger.Info().Int("fixed", len(fixed)).Str("baseline", accepted.Name).
				Msg("accepted violations no longer reported")
		}
	}

	switch format {
	case report.FormatNameCI:
		fmt.Fprint(a.stdout, report.FormatCI(result.Violations))
	case report.FormatNameJSON:
		out, err := report.FormatJSON(result.Violations, result.Files, len(result.Suppressed))
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, out)
	default:
		fmt.Fprint(a.stdout, report.FormatCLI(result.Violations))
	}

	if runErr != nil {
		for _, e := range multierr.Errors(runErr) {
			fmt.Fprintln(a.stderr, "Error:", e)
		}
		return &codeError{code: exitError}
	}
	if len(result.Violations) > 0 && opts.writeBaseline == "" {
		return &codeError{code: exitViolations}
	}
	return nil
}
