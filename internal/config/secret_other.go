//go:build !windows

package config

import (
	"errors"
	"strings"
)

func Secret(value string) (string, error) {
	if strings.HasPrefix(value, secretPrefix) {
		return "", errors.New("dpapi secrets can only be decrypted on windows")
	}

	return value, nil
}

func EncryptSecret(string) (string, error) {
	return "", errors.New("dpapi secrets can only be encrypted on windows")
}
