package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type ruleInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (a *app) rulesCmd() *cobra.Command {
	var (
		jsonOutput bool
		configFile string
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the available rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry(configFile)
			if err != nil {
				return err
			}

			var infos []ruleInfo
			for _, r := range reg.All() {
				infos = append(infos, ruleInfo{ID: r.ID(), Name: r.Name(), Description: r.Description()})
			}

			if jsonOutput {
				data, err := json.MarshalIndent(infos, "", "  ")
				if err != nil {
					return fmt.Errorf("cannot serialize rules: %w", err)
				}
				fmt.Fprintln(a.stdout, string(data))
				return nil
			}

			w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\n", info.ID, info.Name, info.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (default .ansible-lint when present)")
	return cmd
}
