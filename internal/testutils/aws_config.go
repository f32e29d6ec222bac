//go:build runaws
// +build runaws

package testutils

import (
	"context"
	"flag"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/ironbell/vaultiam/credchain"
)

var awsIntegrationTimeout = flag.Duration("aws-integration-timeout", 2*time.Minute, "credential resolution timeout for live aws tests")

// AWSConfigIfHasCredentials resolves the ambient chain for tests that sign
// with real credentials. Running with -tags=runaws asserts the environment
// has them, so failing to resolve is a test failure rather than a skip.
func AWSConfigIfHasCredentials(tb testing.TB) aws.Config {
	tb.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), *awsIntegrationTimeout)
	defer cancel()

	cfg, err := credchain.Load(ctx, "")
	if err != nil {
		tb.Fatalf("loading ambient aws config: %v", err)
	}

	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		tb.Fatalf("didn't find any credentials to sign with: %v", err)
	}

	return cfg
}
