package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	cp "github.com/otiai10/copy"
)

const FileName = "beltkeeper.yaml"

// Install copies the template directory into configDir unless a config file is already there.
// It returns the path of the config file.
func Install(templateDir, configDir string) (string, error) {
	configPath := filepath.Join(configDir, FileName)
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if _, err := os.Stat(filepath.Join(templateDir, FileName)); os.IsNotExist(err) {
		return "", fmt.Errorf("config template not found at %s", templateDir)
	}

	if err := os.MkdirAll(configDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("error creating config folder: %w", err)
	}

	opts := cp.Options{
		OnDirExists: func(src, dest string) cp.DirExistsAction { return cp.Merge },
		Skip: func(info os.FileInfo, src, dest string) (bool, error) {
			// Never clobber files a user already edited
			_, err := os.Stat(dest)
			return err == nil, nil
		},
	}
	if err := cp.Copy(templateDir, configDir, opts); err != nil {
		return "", fmt.Errorf("error copying config template: %w", err)
	}

	return configPath, nil
}
