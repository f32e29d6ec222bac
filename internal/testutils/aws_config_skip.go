//go:build !runaws
// +build !runaws

package testutils

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// AWSConfigIfHasCredentials skips the calling test unless the runaws tag
// opted into signing with live credentials.
func AWSConfigIfHasCredentials(tb testing.TB) aws.Config {
	tb.Helper()
	tb.Skip("skipping live aws tests - use -tags=runaws to enable")
	return aws.Config{}
}
