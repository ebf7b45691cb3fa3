package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models across all providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		models, err := buildRegistry(cfg, log).ListModels(cmd.Context())
		// Partial listings are still worth printing; report the error after.
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tMODEL\tNAME")
		for _, m := range models {
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.Provider, m.ModelName, m.DisplayName)
		}
		if werr := w.Flush(); werr != nil {
			return werr
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
