package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "supplier-chat",
	Short:        "Supplier portal chat client and development relay",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(relayCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
