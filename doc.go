// Package vaultiam logs into HashiCorp Vault's AWS auth method using IAM
// credentials. A login builds a SigV4-signed STS GetCallerIdentity request,
// serializes it into Vault's login payload, and POSTs it to the auth mount;
// Vault replays the request against AWS to learn who the caller is. The
// library keeps no state between calls: every login resolves credentials,
// signs, and exchanges exactly once.
package vaultiam
