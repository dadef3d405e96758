package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/relstore/pkg/database"
)

// fileConfig is the on-disk shape of a relstored config file, loaded
// with gopkg.in/yaml.v3 the way the teacher's own resource manifests
// are loaded.
type fileConfig struct {
	Database struct {
		Name                string `yaml:"name"`
		BlockSize           uint32 `yaml:"block_size"`
		DataDir             string `yaml:"data_dir"`
		DDLLockPollInterval string `yaml:"ddl_lock_poll_interval"`
	} `yaml:"database"`
}

func loadConfig(path string) (name string, cfg database.Config, err error) {
	if path == "" {
		return "default", database.Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", database.Config{}, fmt.Errorf("read config %q: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return "", database.Config{}, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg = database.Config{
		BlockSize: fc.Database.BlockSize,
		DataDir:   fc.Database.DataDir,
	}
	if fc.Database.DDLLockPollInterval != "" {
		d, err := time.ParseDuration(fc.Database.DDLLockPollInterval)
		if err != nil {
			return "", database.Config{}, fmt.Errorf("parse ddl_lock_poll_interval: %w", err)
		}
		cfg.DDLLockPollInterval = d
	}

	name = fc.Database.Name
	if name == "" {
		name = "default"
	}
	return name, cfg, nil
}
