// Package apiauth plugs the IAM login flow into the official Vault client:
// an api.AuthMethod whose Login writes the signed proof to the auth mount.
package apiauth

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/hashicorp/vault/api"

	"github.com/ironbell/vaultiam/credchain"
	"github.com/ironbell/vaultiam/iamproof"
	"github.com/ironbell/vaultiam/internal/errorutil"
)

// AWSIAMAuth logs into Vault's AWS auth method with an IAM identity proof.
// Use it with client.Auth().Login, which also installs the returned token on
// the client.
type AWSIAMAuth struct {
	role      string
	mountPath string
	serverID  string
	builder   iamproof.Builder
}

var _ api.AuthMethod = &AWSIAMAuth{}

// LoginOption adjusts how an AWSIAMAuth logs in.
type LoginOption func(a *AWSIAMAuth) error

// New builds an auth method for role. Without options it signs with the
// ambient credential chain and logs in at auth/aws.
func New(role string, opts ...LoginOption) (*AWSIAMAuth, error) {
	if role == "" {
		return nil, errors.New("no role provided for login")
	}

	a := &AWSIAMAuth{
		role:      role,
		mountPath: "aws",
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, errorutil.Wrap(err, "failed to apply login option")
		}
	}

	if a.builder == nil {
		cfg, err := credchain.Load(context.Background(), "")
		if err != nil {
			return nil, errorutil.Wrap(err, "failed to load ambient aws credentials")
		}
		a.builder = iamproof.NewBuilder(cfg.Credentials)
	}

	return a, nil
}

// WithMountPath logs in at auth/<mountPath> instead of auth/aws.
func WithMountPath(mountPath string) LoginOption {
	return func(a *AWSIAMAuth) error {
		if mountPath == "" {
			return errors.New("empty mount path")
		}
		a.mountPath = mountPath
		return nil
	}
}

// WithIAMServerID signs the given server ID into the proof.
func WithIAMServerID(serverID string) LoginOption {
	return func(a *AWSIAMAuth) error {
		a.serverID = serverID
		return nil
	}
}

// WithCredentials signs proofs with creds instead of the ambient chain.
func WithCredentials(creds aws.CredentialsProvider) LoginOption {
	return func(a *AWSIAMAuth) error {
		if creds == nil {
			return errors.New("nil credentials provider")
		}
		a.builder = iamproof.NewBuilder(creds)
		return nil
	}
}

// WithBuilder swaps the proof builder wholesale.
func WithBuilder(b iamproof.Builder) LoginOption {
	return func(a *AWSIAMAuth) error {
		if b == nil {
			return errors.New("nil payload builder")
		}
		a.builder = b
		return nil
	}
}

// Login implements api.AuthMethod.
func (a *AWSIAMAuth) Login(ctx context.Context, client *api.Client) (*api.Secret, error) {
	payload, err := a.builder.Build(ctx, a.role, a.serverID)
	if err != nil {
		return nil, errorutil.Wrap(err, "failed to build login payload")
	}

	secret, err := client.Logical().WriteWithContext(ctx, "auth/"+a.mountPath+"/login", payload.LoginData())
	if err != nil {
		return nil, errorutil.Wrap(err, "failed to write login request")
	}
	if secret == nil || secret.Auth == nil || secret.Auth.ClientToken == "" {
		return nil, errors.New("login response did not carry a client token")
	}
	return secret, nil
}
