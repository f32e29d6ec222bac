// Package iamproof builds the identity proof Vault's AWS auth method logs in
// with: a SigV4-signed STS GetCallerIdentity request, serialized field by
// field so Vault can replay it and learn the caller's identity from AWS.
// Nothing here talks to AWS or Vault; building a proof is pure computation
// over the credentials and the wall clock.
package iamproof

// LoginPayload is the JSON body for POST v1/auth/<mount>/login. The three
// iam_request_* fields carry base64 of the exact bytes the signature covers,
// so fields are never re-derived from each other after signing.
type LoginPayload struct {
	HTTPMethod     string `json:"iam_http_request_method"`
	RequestURL     string `json:"iam_request_url"`
	RequestHeaders string `json:"iam_request_headers"`
	RequestBody    string `json:"iam_request_body"`
	Role           string `json:"role"`
}

// LoginData flattens the payload for clients that write login bodies as
// generic maps, like the official Vault client's Logical().Write.
func (p *LoginPayload) LoginData() map[string]interface{} {
	return map[string]interface{}{
		"iam_http_request_method": p.HTTPMethod,
		"iam_request_url":         p.RequestURL,
		"iam_request_headers":     p.RequestHeaders,
		"iam_request_body":        p.RequestBody,
		"role":                    p.Role,
	}
}
