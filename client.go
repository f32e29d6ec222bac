package vaultiam

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/ironbell/vaultiam/credchain"
	"github.com/ironbell/vaultiam/iamproof"
	"github.com/ironbell/vaultiam/internal/errorutil"
)

// DefaultMountPath is where Vault mounts the AWS auth method unless an
// operator picked a custom path.
const DefaultMountPath = "aws"

// ErrTransport classifies failures between this process and Vault: building
// the login request, the round trip itself, or a response body that is not
// JSON. A Vault-side rejection is not a transport error; it comes back in
// the response map under "errors".
var ErrTransport = errors.New("vault transport failed")

// Params carries everything one login attempt needs.
type Params struct {
	// VaultAddress is the scheme://host[:port] of the Vault server. A
	// trailing slash is tolerated.
	VaultAddress string

	// Role is the Vault role to log in as. Vault resolves it against the
	// identity STS reports, so an empty role is forwarded as-is and left
	// for Vault to judge.
	Role string

	// MountPath is where the AWS auth method is mounted. Empty means
	// DefaultMountPath.
	MountPath string

	// IAMServerID, when set, is signed into the proof as
	// X-Vault-AWS-IAM-Server-ID and must match the value configured on the
	// auth mount.
	IAMServerID string
}

// Client exchanges IAM identity proofs for Vault login responses.
type Client struct {
	// HTTPClient posts the login exchange. Defaults to a pooled client.
	HTTPClient *http.Client

	// Builder produces the signed proof. Defaults to a SigV4 builder over
	// the ambient credential chain.
	Builder iamproof.Builder

	timeout   time.Duration
	tlsConfig *TLSConfig
}

// NewClient applies opts and fills in defaults for whatever they left
// unset. Resolving the ambient credential chain can fail, so constructing a
// default builder reports that here rather than at login time.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errorutil.Wrap(err, "failed to apply client option")
		}
	}

	if c.HTTPClient == nil {
		c.HTTPClient = cleanhttp.DefaultPooledClient()
	}

	if c.tlsConfig != nil || c.timeout > 0 {
		hc := *c.HTTPClient
		if c.tlsConfig != nil {
			transport, err := c.tlsConfig.transport()
			if err != nil {
				return nil, errorutil.Wrap(err, "failed to build tls transport")
			}
			hc.Transport = transport
		}
		if c.timeout > 0 {
			hc.Timeout = c.timeout
		}
		c.HTTPClient = &hc
	}

	if c.Builder == nil {
		cfg, err := credchain.Load(context.Background(), "")
		if err != nil {
			return nil, errorutil.Wrap(err, "failed to load ambient aws credentials")
		}
		c.Builder = iamproof.NewBuilder(cfg.Credentials)
	}

	return c, nil
}

// Authenticate builds a signed identity proof for params and exchanges it at
// POST {VaultAddress}/v1/auth/{MountPath}/login.
//
// The response JSON comes back verbatim whatever the HTTP status: Vault
// reports login failures in the body ({"errors": [...]}), and callers that
// only want the token can hand the result to TokenFrom. Errors are reserved
// for failures to produce or move the payload.
func (c *Client) Authenticate(ctx context.Context, params Params) (map[string]interface{}, error) {
	payload, err := c.Builder.Build(ctx, params.Role, params.IAMServerID)
	if err != nil {
		return nil, errorutil.Wrap(err, "failed to build login payload")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", iamproof.ErrEncoding, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL(params), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding login response: %w", ErrTransport, err)
	}
	return result, nil
}

func loginURL(params Params) string {
	mount := params.MountPath
	if mount == "" {
		mount = DefaultMountPath
	}
	return fmt.Sprintf("%s/v1/auth/%s/login", strings.TrimSuffix(params.VaultAddress, "/"), mount)
}

// Authenticate is the one-shot form: a throwaway client built from opts
// performs a single login.
func Authenticate(ctx context.Context, params Params, opts ...Option) (map[string]interface{}, error) {
	c, err := NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return c.Authenticate(ctx, params)
}
