package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command for the member API server.
var rootCmd = &cobra.Command{
	Use:   "memberhub",
	Short: "Member identity API server",
	Long: `memberhub is the backend for member registration, login, and
identity-token based access to member data.`,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
