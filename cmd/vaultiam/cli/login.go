package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ironbell/vaultiam"
	"github.com/ironbell/vaultiam/credchain"
)

var tokenOnly bool

var loginCmd = &cobra.Command{
	Use:   "login ROLE",
	Short: "Exchange AWS IAM credentials for a Vault token",
	Long: `Login signs an STS GetCallerIdentity request with the ambient AWS
credentials and exchanges it at the AWS auth mount for the given role.

The raw login response is printed as JSON, including Vault-side rejections;
--token-only reduces the output to the client token and turns rejections
into a non-zero exit.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().BoolVar(&tokenOnly, "token-only", false, "print only the client token")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	s, err := resolveSettings()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	role := args[0]

	cfg, err := credchain.Load(ctx, s.region)
	if err != nil {
		return err
	}

	slog.Debug("logging into vault", "address", s.address, "role", role)

	resp, err := vaultiam.Authenticate(ctx, vaultiam.Params{
		VaultAddress: s.address,
		Role:         role,
		MountPath:    s.mount,
		IAMServerID:  s.serverID,
	}, vaultiam.WithCredentials(cfg.Credentials))
	if err != nil {
		return err
	}

	if tokenOnly {
		token, err := vaultiam.TokenFrom(resp)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
