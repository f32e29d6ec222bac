package credchain_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironbell/vaultiam/credchain"
)

// clearAmbientAWSEnv blanks the variables that would otherwise leak the host
// machine's AWS setup into a test.
func clearAmbientAWSEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AWS_WEB_IDENTITY_TOKEN_FILE",
		"AWS_ROLE_ARN",
		"AWS_ROLE_SESSION_NAME",
		"AWS_ACCESS_KEY_ID",
		"AWS_SECRET_ACCESS_KEY",
		"AWS_SESSION_TOKEN",
		"AWS_REGION",
		"AWS_DEFAULT_REGION",
		"AWS_PROFILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadUsesEnvironmentCredentials(t *testing.T) {
	clearAmbientAWSEnv(t)
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDTEST")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test-secret")

	cfg, err := credchain.Load(context.Background(), "eu-west-2")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Region != "eu-west-2" {
		t.Errorf("region = %q, want eu-west-2", cfg.Region)
	}

	creds, err := cfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.AccessKeyID != "AKIDTEST" {
		t.Errorf("access key = %q, want AKIDTEST", creds.AccessKeyID)
	}
}

func TestLoadWebIdentityRequiresRoleARN(t *testing.T) {
	clearAmbientAWSEnv(t)
	t.Setenv("AWS_WEB_IDENTITY_TOKEN_FILE", "/var/run/secrets/eks.amazonaws.com/serviceaccount/token")

	_, err := credchain.Load(context.Background(), "")
	if err == nil {
		t.Fatal("expected an error when AWS_ROLE_ARN is missing")
	}
	if !strings.Contains(err.Error(), "AWS_ROLE_ARN") {
		t.Fatalf("error %q does not name the missing variable", err)
	}
}

func TestLoadWebIdentityEnvironment(t *testing.T) {
	clearAmbientAWSEnv(t)

	tokenFile := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(tokenFile, []byte("header.payload.signature"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AWS_WEB_IDENTITY_TOKEN_FILE", tokenFile)
	t.Setenv("AWS_ROLE_ARN", "arn:aws:iam::123456789012:role/pod-role")
	t.Setenv("AWS_REGION", "us-west-2")

	// The exchange with STS is lazy, so loading must succeed without any
	// network access.
	cfg, err := credchain.Load(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Region != "us-west-2" {
		t.Errorf("region = %q, want us-west-2", cfg.Region)
	}
	if cfg.Credentials == nil {
		t.Error("no credentials provider was wired")
	}
}
