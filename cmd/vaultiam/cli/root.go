// Package cli implements the vaultiam command line: IAM logins against
// Vault, plus helpers for inspecting the AWS identity they would present.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	address  string
	mount    string
	serverID string
	region   string
	verbose  bool
	jsonOut  bool
)

var rootCmd = &cobra.Command{
	Use:   "vaultiam",
	Short: "Log into HashiCorp Vault with AWS IAM credentials",
	Long: `vaultiam exchanges the caller's AWS identity for a Vault token.

A login signs an STS GetCallerIdentity request with the ambient AWS
credentials (environment, shared config, instance or task roles, IRSA) and
posts it to Vault's AWS auth method, which verifies the signature with AWS
and issues a token for the requested role.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging(verbose, jsonOut)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.vaultiam/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&address, "address", "", "Vault server address (env: VAULT_ADDR)")
	rootCmd.PersistentFlags().StringVar(&mount, "mount", "", `mount path of the AWS auth method (default "aws")`)
	rootCmd.PersistentFlags().StringVar(&serverID, "server-id", "", "value signed into the X-Vault-AWS-IAM-Server-ID header")
	rootCmd.PersistentFlags().StringVar(&region, "region", "", "AWS region for credential exchanges (default: auto-detect)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "log in JSON format")
}

func initLogging(verbose, jsonOut bool) {
	// Warn and up unless asked; a login's output belongs to stdout, the
	// log to stderr.
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if jsonOut {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
