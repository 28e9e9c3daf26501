//go:build windows

package config

import (
	"fmt"
	"strings"

	"github.com/billgraziano/dpapi"
)

// Secret returns the plain value of a config secret. Values prefixed with "dpapi:" were
// encrypted for the current Windows user.
func Secret(value string) (string, error) {
	encrypted, found := strings.CutPrefix(value, secretPrefix)
	if !found {
		return value, nil
	}

	plain, err := dpapi.Decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("error decrypting secret: %w", err)
	}

	return plain, nil
}

// EncryptSecret returns value encrypted for the current Windows user, ready to paste in the config.
func EncryptSecret(value string) (string, error) {
	encrypted, err := dpapi.Encrypt(value)
	if err != nil {
		return "", err
	}

	return secretPrefix + encrypted, nil
}
