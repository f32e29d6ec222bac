// Package credchain resolves the AWS identity material login proofs are
// signed with. It follows the SDK's default provider chain, detects the
// web-identity environment Kubernetes service accounts run under, and can
// discover the region for callers that need an STS client of their own.
package credchain

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/ironbell/vaultiam/internal/errorutil"
)

// IRSA injects these into pods bound to an IAM role.
const (
	webIdentityTokenFileEnv = "AWS_WEB_IDENTITY_TOKEN_FILE"
	roleARNEnv              = "AWS_ROLE_ARN"
	roleSessionNameEnv      = "AWS_ROLE_SESSION_NAME"
)

// Load builds an aws.Config for signing. Most environments get the plain
// default chain; when the web-identity variables are present the credentials
// go through STS AssumeRoleWithWebIdentity instead, which is how IRSA
// expects the exchange to happen. region may be empty, leaving the chain's
// own resolution in charge.
func Load(ctx context.Context, region string) (aws.Config, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}

	tokenFile := os.Getenv(webIdentityTokenFileEnv)
	if tokenFile == "" {
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return aws.Config{}, errorutil.Wrap(err, "failed to load default aws config")
		}
		return cfg, nil
	}

	roleARN := os.Getenv(roleARNEnv)
	if roleARN == "" {
		return aws.Config{}, fmt.Errorf("%s is set but %s is not", webIdentityTokenFileEnv, roleARNEnv)
	}

	// The web-identity exchange itself needs an STS client, built from a
	// config without the provider we are about to construct.
	baseCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, errorutil.Wrap(err, "failed to load base aws config for web identity")
	}

	provider := stscreds.NewWebIdentityRoleProvider(
		sts.NewFromConfig(baseCfg),
		roleARN,
		stscreds.IdentityTokenFile(tokenFile),
		func(o *stscreds.WebIdentityRoleOptions) {
			if sessionName := os.Getenv(roleSessionNameEnv); sessionName != "" {
				o.RoleSessionName = sessionName
			}
		},
	)

	cfg, err := config.LoadDefaultConfig(ctx, append(loadOpts, config.WithCredentialsProvider(provider))...)
	if err != nil {
		return aws.Config{}, errorutil.Wrap(err, "failed to load aws config with web identity provider")
	}
	return cfg, nil
}
