package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relayops/agentbridge/bridge"
)

var streamCmd = &cobra.Command{
	Use:   "stream <prompt>...",
	Short: "Run one call and print text as it streams",
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

		events, err := model.Stream(cmd.Context(), newRequest(args))
		if err != nil {
			return err
		}

		for ev := range events {
			switch e := ev.(type) {
			case bridge.TextDeltaEvent:
				fmt.Print(e.Delta)
			case bridge.TextEndEvent:
				fmt.Println()
			case bridge.FinishEvent:
				if verbose {
					fmt.Fprintf(cmd.ErrOrStderr(), "finish=%s input_tokens=%d output_tokens=%d\n",
						e.Reason, e.Usage.InputTokens, e.Usage.OutputTokens)
				}
			case bridge.ErrorEvent:
				return e.Err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(streamCmd)
}
