package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/enp09/duende/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "duende-configure",
		Short: "Operator tool for Duende",
		Long:  "Manage runtime configuration, apply the schema, import calendars and preview threshold analysis.",
	}

	rootCmd.AddCommand(commands.NewMigrateCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewImportICSCmd())
	rootCmd.AddCommand(commands.NewAnalyzeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
