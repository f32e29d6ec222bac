package iamproof

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// Vault replays the signed request against the global STS endpoint, so every
// proof is built for that endpoint with the matching fixed signing scope. A
// regional endpoint would change the bytes Vault verifies.
const (
	stsEndpointURL        = "https://sts.amazonaws.com/"
	getCallerIdentityBody = "Action=GetCallerIdentity&Version=2011-06-15"

	signingService = "sts"
	signingRegion  = "us-east-1"

	requestContentType = "application/x-www-form-urlencoded"
)

// IAMServerIDHeader is signed into the proof when a server ID is supplied,
// binding the login to the Vault cluster configured with the same value.
const IAMServerIDHeader = "X-Vault-AWS-IAM-Server-ID"

// Sentinels classifying the stages a Build can fail in. Match with
// errors.Is; the wrapped cause carries the detail.
var (
	ErrCredentialsUnavailable = errors.New("aws credentials unavailable")
	ErrSigning                = errors.New("sigv4 signing failed")
	ErrEncoding               = errors.New("login payload encoding failed")
)

// Builder turns an AWS identity into a Vault login payload. Implementations
// never perform the login themselves; the payload goes to whoever owns the
// Vault exchange.
type Builder interface {
	Build(ctx context.Context, role, serverID string) (*LoginPayload, error)
}

// SigV4Builder builds proofs signed with AWS Signature Version 4.
type SigV4Builder struct {
	creds       aws.CredentialsProvider
	sigV4Signer *v4.Signer

	nowFunc func() time.Time
}

var _ Builder = &SigV4Builder{}

// NewBuilder returns a SigV4Builder that resolves a fresh set of credentials
// from creds on every Build.
func NewBuilder(creds aws.CredentialsProvider) *SigV4Builder {
	return &SigV4Builder{
		creds:       creds,
		sigV4Signer: v4.NewSigner(),
		nowFunc:     time.Now,
	}
}

// Build constructs the canonical GetCallerIdentity request, signs it for
// role, and packs the result into a LoginPayload. serverID may be empty;
// when set it is added as IAMServerIDHeader before signing so Vault can
// verify it was part of the signature.
func (b *SigV4Builder) Build(ctx context.Context, role, serverID string) (*LoginPayload, error) {
	creds, err := b.creds.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCredentialsUnavailable, err)
	}

	req, err := http.NewRequest(http.MethodPost, stsEndpointURL, strings.NewReader(getCallerIdentityBody))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrSigning, err)
	}
	req.Header.Set("Content-Type", requestContentType)
	if serverID != "" {
		// Header.Set would canonicalize the name to X-Vault-Aws-Iam-Server-Id;
		// assign directly so the exact casing survives into the payload.
		req.Header[IAMServerIDHeader] = []string{serverID}
	}

	// SignHTTP takes the payload hash hex-encoded, not raw.
	hashedBody := sha256.Sum256([]byte(getCallerIdentityBody))

	if err := b.sigV4Signer.SignHTTP(ctx,
		creds,
		req,
		hex.EncodeToString(hashedBody[:]),
		signingService,
		signingRegion,
		b.nowFunc(),
	); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}

	headersJSON, err := marshalSignedHeaders(req.Header)
	if err != nil {
		return nil, err
	}

	return &LoginPayload{
		HTTPMethod:     req.Method,
		RequestURL:     base64.StdEncoding.EncodeToString([]byte(stsEndpointURL)),
		RequestHeaders: base64.StdEncoding.EncodeToString(headersJSON),
		RequestBody:    base64.StdEncoding.EncodeToString([]byte(getCallerIdentityBody)),
		Role:           role,
	}, nil
}

// marshalSignedHeaders projects the signed request's headers into the JSON
// object Vault expects, header name to ordered value list. Host and
// Content-Length ride on the request line and metadata rather than the
// header map; Vault restores them when it replays the request.
func marshalSignedHeaders(h http.Header) ([]byte, error) {
	for name, values := range h {
		for _, v := range values {
			if !utf8.ValidString(v) {
				return nil, fmt.Errorf("%w: header %q has a non-utf-8 value", ErrEncoding, name)
			}
		}
	}

	out, err := json.Marshal(map[string][]string(h))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return out, nil
}
