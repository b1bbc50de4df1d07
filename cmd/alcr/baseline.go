package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"alcr/internal/baseline"
)

func (a *app) baselineCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baselines of accepted violations",
	}
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")

	store := func() *baseline.Store {
		return baseline.NewStore(a.fs, a.abs(baseline.ResolveDir(a.environ)))
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List stored baselines",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				summaries, err := store().List()
				if err != nil {
					return fmt.Errorf("cannot list baselines: %w", err)
				}

				if jsonOutput {
					return a.printJSON(summaries)
				}
				if len(summaries) == 0 {
					fmt.Fprintln(a.stdout, "No baselines found")
					return nil
				}
				for _, b := range summaries {
					fmt.Fprintf(a.stdout, "%s  %d  %s\n", b.Name, b.Count, b.Timestamp.Format(time.RFC3339))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show NAME",
			Short: "Show the violations a baseline accepts",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				b, err := store().Load(args[0])
				if err != nil {
					return err
				}

				if jsonOutput {
					return a.printJSON(b)
				}
				fmt.Fprintf(a.stdout, "Name:      %s\n", b.Name)
				fmt.Fprintf(a.stdout, "Timestamp: %s\n", b.Timestamp.Format(time.RFC3339))
				fmt.Fprintf(a.stdout, "Accepted:  %d\n", len(b.Entries))
				for _, e := range b.Entries {
					fmt.Fprintf(a.stdout, "  %s  %s  %s\n", e.RuleID, e.Path, e.Subject)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete NAME",
			Short: "Delete a baseline",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := store().Delete(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Baseline '%s' deleted\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func (a *app) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot serialize output: %w", err)
	}
	fmt.Fprintln(a.stdout, string(data))
	return nil
}
