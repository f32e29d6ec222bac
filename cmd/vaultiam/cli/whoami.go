package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/ironbell/vaultiam/credchain"
	"github.com/ironbell/vaultiam/internal/errorutil"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the AWS identity a login would present",
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	callRegion := region
	if callRegion == "" {
		detected, err := credchain.Region(ctx)
		if err != nil {
			// GetCallerIdentity answers from any region; the global
			// default keeps whoami usable off EC2.
			slog.Debug("region detection failed, using us-east-1", "error", err)
			detected = "us-east-1"
		}
		callRegion = detected
	}

	cfg, err := credchain.Load(ctx, callRegion)
	if err != nil {
		return err
	}

	out, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return errorutil.Wrap(err, "failed to call sts get-caller-identity")
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Account: %s\n", aws.ToString(out.Account))
	fmt.Fprintf(w, "Arn:     %s\n", aws.ToString(out.Arn))
	fmt.Fprintf(w, "UserId:  %s\n", aws.ToString(out.UserId))

	if role, err := callerRoleARN(aws.ToString(out.Arn)); err == nil {
		fmt.Fprintf(w, "Role:    %s\n", role)
	}
	return nil
}

// callerRoleARN rewrites an assumed-role STS caller ARN into the underlying
// IAM role ARN, the name Vault role bindings usually carry. Anything that is
// not an assumed role has no rewrite.
func callerRoleARN(callerARN string) (string, error) {
	parsed, err := arn.Parse(callerARN)
	if err != nil {
		return "", errorutil.Wrapf(err, "failed to parse caller arn %q", callerARN)
	}

	if parsed.Service != "sts" || !strings.HasPrefix(parsed.Resource, "assumed-role/") {
		return "", fmt.Errorf("%q is not an assumed-role arn", callerARN)
	}

	resource := strings.SplitN(parsed.Resource, "/", 3)
	if len(resource) < 2 || resource[1] == "" {
		return "", fmt.Errorf("malformed assumed-role arn %q", callerARN)
	}

	parsed.Service = "iam"
	parsed.Region = ""
	parsed.Resource = "role/" + resource[1]
	return parsed.String(), nil
}
