package main

import (
	"github.com/spf13/cobra"
)

func newDocumentsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs", "ls"},
		Short:   "List uploaded documents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := opts.client().ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			printDocuments(cmd.OutOrStdout(), docs, "")
			return nil
		},
	}
}
