package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "helpdesk",
	Short: "Help-desk API: local tickets merged with GLPI, sessions, AI assistance",
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(migrateCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
