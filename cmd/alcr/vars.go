package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"alcr/internal/playbook"
	"alcr/internal/rules"
	"alcr/internal/varnames"
)

func (a *app) varsCmd() *cobra.Command {
	var (
		withInventory bool
		locations     bool
		configFile    string
	)

	cmd := &cobra.Command{
		Use:   "vars PLAYBOOK",
		Short: "Print the variable names a playbook declares",
		Long: `Print the sorted set of variable names declared by a playbook's vars,
vars_files and role defaults/vars. With --inventory, names from the
configured inventory and its host_vars/group_vars are included.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry(configFile)
			if err != nil {
				return err
			}
			rule, err := reg.Lookup(rules.IDVariablesNaming)
			if err != nil {
				return err
			}
			naming, ok := rule.(*rules.VariablesNaming)
			if !ok {
				return fmt.Errorf("rule %s does not collect variables", rule.ID())
			}

			path := a.abs(args[0])
			pb, err := playbook.Load(a.fs, path)
			if err != nil {
				return err
			}
			if pb.Kind != playbook.KindPlaybook {
				return fmt.Errorf("%s is not a playbook", args[0])
			}

			c := naming.Collector(&rules.Target{FS: a.fs, Playbook: pb})
			vars, err := c.FromPlaybook(pb)
			if err != nil {
				return err
			}
			if withInventory {
				invVars, err := c.FromInventory()
				if err != nil {
					return err
				}
				vars = append(vars, invVars...)
			}

			if locations {
				for _, v := range vars {
					fmt.Fprintf(a.stdout, "%s\t%s:%d\n", v.Name, v.Path, v.Line)
				}
				return nil
			}
			for _, name := range varnames.Names(vars).Sorted() {
				fmt.Fprintln(a.stdout, name)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&withInventory, "inventory", false, "include names from the configured inventory")
	flags.BoolVar(&locations, "locations", false, "print every declaration with its file and line")
	flags.StringVarP(&configFile, "config", "c", "", "config file (default .ansible-lint when present)")
	return cmd
}
