package main

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/relayops/agentbridge/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema for the YAML config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		reflector := &jsonschema.Reflector{
			DoNotReference: true, // inline definitions instead of $ref
			ExpandedStruct: true,
		}
		schema := reflector.Reflect(&config.Config{})

		out, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSchemaCmd)
}
