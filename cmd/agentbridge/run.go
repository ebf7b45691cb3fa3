package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <prompt>...",
	Short: "Run one buffered call and print the full response",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		model, err := selectedModel(cmd.Context(), buildRegistry(cfg, log))
		if err != nil {
			return err
		}

		res, err := model.Generate(cmd.Context(), newRequest(args))
		if err != nil {
			return err
		}

		fmt.Println(res.Text)
		if verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "finish=%s input_tokens=%d output_tokens=%d\n",
				res.Reason, res.Usage.InputTokens, res.Usage.OutputTokens)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
