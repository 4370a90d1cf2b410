package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/pacer/internal/submitter"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List sports and their lead athletes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		records, err := submitter.New(serverURL).Leads(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), records)
		}
		printLeads(cmd.OutOrStdout(), records)
		return nil
	},
}
