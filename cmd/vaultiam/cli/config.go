package cli

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ironbell/vaultiam/internal/errorutil"
)

// FileConfig is what the optional config file can carry. Flags and
// VAULT_ADDR take precedence over it.
type FileConfig struct {
	Address     string `yaml:"address"`
	MountPath   string `yaml:"mount_path"`
	IAMServerID string `yaml:"iam_server_id"`
	Region      string `yaml:"region"`
}

// defaultConfigPath is ~/.vaultiam/config.yaml, or empty when the home
// directory is unknown.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".vaultiam", "config.yaml")
}

// loadFileConfig reads path, or the default location when path is empty. A
// missing default file is fine; a missing explicit file is an error.
func loadFileConfig(path string) (FileConfig, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
		if path == "" {
			return FileConfig{}, nil
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
		return FileConfig{}, nil
	case err != nil:
		return FileConfig{}, errorutil.Wrapf(err, "failed to read config file %q", path)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, errorutil.Wrapf(err, "failed to parse config file %q", path)
	}
	return cfg, nil
}

// settings are the resolved inputs the commands share. Flags win, then the
// environment, then the config file.
type settings struct {
	address  string
	mount    string
	serverID string
	region   string
}

func resolveSettings() (settings, error) {
	fileCfg, err := loadFileConfig(cfgFile)
	if err != nil {
		return settings{}, err
	}

	s := settings{
		address:  firstNonEmpty(address, os.Getenv("VAULT_ADDR"), fileCfg.Address),
		mount:    firstNonEmpty(mount, fileCfg.MountPath),
		serverID: firstNonEmpty(serverID, fileCfg.IAMServerID),
		region:   firstNonEmpty(region, fileCfg.Region),
	}

	if s.address == "" {
		return settings{}, errors.New("no vault address: set --address, VAULT_ADDR, or address in the config file")
	}
	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
