package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check which provider CLIs are installed and working",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)
		reg := buildRegistry(cfg, log)

		for _, name := range reg.Names() {
			p := reg.MustProvider(name)
			version, err := p.Version(cmd.Context())
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s unavailable: %v\n", name, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s ok (%s)\n", name, strings.TrimSpace(version))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
