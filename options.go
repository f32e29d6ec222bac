package vaultiam

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/ironbell/vaultiam/iamproof"
)

// Option configures a Client. Options can fail, so NewClient reports the
// first failure instead of deferring it to login time.
type Option func(c *Client) error

// WithHTTPClient posts the login exchange over hc instead of the default
// pooled client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("nil http client")
		}
		c.HTTPClient = hc
		return nil
	}
}

// WithBuilder swaps the proof builder. This is the seam tests use, and the
// hook for callers that already hold a configured builder.
func WithBuilder(b iamproof.Builder) Option {
	return func(c *Client) error {
		if b == nil {
			return errors.New("nil payload builder")
		}
		c.Builder = b
		return nil
	}
}

// WithCredentials signs proofs with creds instead of the ambient chain.
func WithCredentials(creds aws.CredentialsProvider) Option {
	return func(c *Client) error {
		if creds == nil {
			return errors.New("nil credentials provider")
		}
		c.Builder = iamproof.NewBuilder(creds)
		return nil
	}
}

// WithTimeout bounds the whole login exchange, response body included. The
// HTTP client it lands on is copied first, so a client shared with other
// code keeps its own timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout < 0 {
			return fmt.Errorf("negative timeout %v", timeout)
		}
		c.timeout = timeout
		return nil
	}
}

// WithTLSConfig verifies Vault's certificate against tc instead of the
// system defaults. It replaces the transport of whatever HTTP client the
// login ends up using.
func WithTLSConfig(tc *TLSConfig) Option {
	return func(c *Client) error {
		if tc == nil {
			return errors.New("nil tls config")
		}
		c.tlsConfig = tc
		return nil
	}
}

// TLSConfig carries the trust knobs Vault deployments commonly need.
type TLSConfig struct {
	// CACertPEM appends PEM-encoded certificates to the trusted roots.
	CACertPEM []byte

	// ServerName overrides the hostname used to verify the certificate.
	ServerName string

	// InsecureSkipVerify disables certificate verification entirely. Meant
	// for tests against throwaway servers.
	InsecureSkipVerify bool
}

func (tc *TLSConfig) transport() (*http.Transport, error) {
	tlsClientConfig := &tls.Config{
		ServerName:         tc.ServerName,
		InsecureSkipVerify: tc.InsecureSkipVerify,
	}

	if len(tc.CACertPEM) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(tc.CACertPEM) {
			return nil, errors.New("no usable CA certificates in PEM")
		}
		tlsClientConfig.RootCAs = pool
	}

	transport := cleanhttp.DefaultPooledTransport()
	transport.TLSClientConfig = tlsClientConfig
	return transport, nil
}
