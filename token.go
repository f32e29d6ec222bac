package vaultiam

import (
	"errors"
	"fmt"
)

// TokenFrom digs the client token out of a login response. Vault reports
// login rejections inside the body rather than as transport failures, so
// this is the point where a denial becomes an error.
func TokenFrom(response map[string]interface{}) (string, error) {
	if errs, ok := response["errors"].([]interface{}); ok && len(errs) > 0 {
		return "", fmt.Errorf("vault rejected the login: %v", errs)
	}

	auth, ok := response["auth"].(map[string]interface{})
	if !ok {
		return "", errors.New("login response has no auth block")
	}

	token, _ := auth["client_token"].(string)
	if token == "" {
		return "", errors.New("login response has no client token")
	}
	return token, nil
}
