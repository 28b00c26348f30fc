package main

import "github.com/spf13/cobra"

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query sources and archived profiles from the CLI",
	}
	cmd.AddCommand(queryListCmd())
	cmd.AddCommand(queryEntityCmd())
	cmd.AddCommand(querySearchCmd())
	return cmd
}
