package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/locallink/backend/internal/analysis/intent"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text>",
		Short: "Print the intent detected for a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := intent.Classify(strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), string(label))
			return nil
		},
	}
}
