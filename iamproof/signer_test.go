package iamproof_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/ironbell/vaultiam/iamproof"
)

type failingCreds struct{ err error }

func (f failingCreds) Retrieve(context.Context) (aws.Credentials, error) {
	return aws.Credentials{}, f.err
}

func decodeBase64(tb testing.TB, field string) string {
	tb.Helper()

	raw, err := base64.StdEncoding.DecodeString(field)
	if err != nil {
		tb.Fatalf("field is not valid base64: %v", err)
	}
	return string(raw)
}

func decodeHeaders(tb testing.TB, payload *iamproof.LoginPayload) map[string][]string {
	tb.Helper()

	headers := make(map[string][]string)
	if err := json.Unmarshal([]byte(decodeBase64(tb, payload.RequestHeaders)), &headers); err != nil {
		tb.Fatalf("headers are not valid JSON: %v", err)
	}
	return headers
}

func TestBuildPayload(t *testing.T) {
	b := iamproof.NewBuilder(credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", "the-session-token"))

	payload, err := b.Build(context.Background(), "web-role", "vault.test.internal")
	if err != nil {
		t.Fatal(err)
	}

	if payload.HTTPMethod != "POST" {
		t.Errorf("method = %q, want POST", payload.HTTPMethod)
	}
	if got := decodeBase64(t, payload.RequestURL); got != "https://sts.amazonaws.com/" {
		t.Errorf("url decodes to %q", got)
	}
	if got := decodeBase64(t, payload.RequestBody); got != "Action=GetCallerIdentity&Version=2011-06-15" {
		t.Errorf("body decodes to %q", got)
	}
	if payload.Role != "web-role" {
		t.Errorf("role = %q, want web-role", payload.Role)
	}

	headers := decodeHeaders(t, payload)

	for header, want := range map[string]string{
		"Content-Type":              "application/x-www-form-urlencoded",
		"X-Vault-AWS-IAM-Server-ID": "vault.test.internal",
		"X-Amz-Security-Token":      "the-session-token",
	} {
		got, ok := headers[header]
		if !ok {
			t.Errorf("missing header %s", header)
			continue
		}
		if len(got) != 1 || got[0] != want {
			t.Errorf("header %s = %v, want [%s]", header, got, want)
		}
	}

	if _, ok := headers["X-Amz-Date"]; !ok {
		t.Error("missing header X-Amz-Date")
	}

	// Host and Content-Length belong to the request itself; Vault restores
	// them on replay.
	for _, header := range []string{"Host", "Content-Length"} {
		if _, ok := headers[header]; ok {
			t.Errorf("header %s should not be serialized", header)
		}
	}

	auth, ok := headers["Authorization"]
	if !ok || len(auth) != 1 {
		t.Fatalf("authorization header = %v", auth)
	}
	for _, want := range []string{
		"AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/",
		"/us-east-1/sts/aws4_request",
		"SignedHeaders=",
		"x-vault-aws-iam-server-id",
		"Signature=",
	} {
		if !strings.Contains(auth[0], want) {
			t.Errorf("authorization %q does not contain %q", auth[0], want)
		}
	}
}

func TestBuildKeepsServerIDHeaderCasing(t *testing.T) {
	b := iamproof.NewBuilder(credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""))

	payload, err := b.Build(context.Background(), "web-role", "vault.example.com")
	if err != nil {
		t.Fatal(err)
	}

	headers := decodeHeaders(t, payload)
	if got := headers[iamproof.IAMServerIDHeader]; len(got) != 1 || got[0] != "vault.example.com" {
		t.Fatalf("header %s = %v", iamproof.IAMServerIDHeader, got)
	}

	// The serialized name must match byte-for-byte, not just
	// case-insensitively.
	for name := range headers {
		if strings.EqualFold(name, iamproof.IAMServerIDHeader) && name != iamproof.IAMServerIDHeader {
			t.Errorf("server id header was reshaped to %q", name)
		}
	}
}

func TestBuildPreservesRoleVerbatim(t *testing.T) {
	b := iamproof.NewBuilder(credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""))

	for _, role := range []string{
		"plain-role",
		"path/style/role",
		"role with spaces",
		`quoted "role"`,
		"rôle-ünïcode",
	} {
		payload, err := b.Build(context.Background(), role, "")
		if err != nil {
			t.Fatal(err)
		}
		if payload.Role != role {
			t.Errorf("role %q came back as %q", role, payload.Role)
		}

		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		var decoded iamproof.LoginPayload
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatal(err)
		}
		if decoded.Role != role {
			t.Errorf("role %q did not survive JSON round trip: %q", role, decoded.Role)
		}
	}
}

func TestBuildWithoutServerID(t *testing.T) {
	b := iamproof.NewBuilder(credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""))

	payload, err := b.Build(context.Background(), "web-role", "")
	if err != nil {
		t.Fatal(err)
	}

	headers := decodeHeaders(t, payload)
	if _, ok := headers[iamproof.IAMServerIDHeader]; ok {
		t.Errorf("server id header present despite empty server id: %v", headers)
	}
	if auth := headers["Authorization"]; strings.Contains(auth[0], "x-vault-aws-iam-server-id") {
		t.Errorf("server id was signed despite empty server id: %v", auth)
	}
}

func TestBuildWithoutSessionToken(t *testing.T) {
	b := iamproof.NewBuilder(credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""))

	payload, err := b.Build(context.Background(), "web-role", "")
	if err != nil {
		t.Fatal(err)
	}

	if headers := decodeHeaders(t, payload); len(headers["X-Amz-Security-Token"]) != 0 {
		t.Errorf("security token header present for tokenless credentials: %v", headers)
	}
}

func TestBuildCredentialsUnavailable(t *testing.T) {
	cause := errors.New("no providers in chain")
	b := iamproof.NewBuilder(failingCreds{err: cause})

	_, err := b.Build(context.Background(), "web-role", "")
	if !errors.Is(err, iamproof.ErrCredentialsUnavailable) {
		t.Fatalf("err = %v, want ErrCredentialsUnavailable", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("err %v lost its cause", err)
	}
}

func TestBuildRejectsNonUTF8ServerID(t *testing.T) {
	b := iamproof.NewBuilder(credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""))

	_, err := b.Build(context.Background(), "web-role", string([]byte{0xff, 0xfe, 0xfd}))
	if !errors.Is(err, iamproof.ErrEncoding) {
		t.Fatalf("err = %v, want ErrEncoding", err)
	}
}

func TestLoginDataMirrorsJSONShape(t *testing.T) {
	b := iamproof.NewBuilder(credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""))

	payload, err := b.Build(context.Background(), "web-role", "")
	if err != nil {
		t.Fatal(err)
	}

	viaJSON, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}

	fromTags := make(map[string]string)
	if err := json.Unmarshal(viaJSON, &fromTags); err != nil {
		t.Fatal(err)
	}

	data := payload.LoginData()
	if len(data) != len(fromTags) {
		t.Fatalf("LoginData has %d keys, JSON tags produce %d", len(data), len(fromTags))
	}
	for key, want := range fromTags {
		if got, ok := data[key].(string); !ok || got != want {
			t.Errorf("LoginData[%q] = %v, want %q", key, data[key], want)
		}
	}
}
