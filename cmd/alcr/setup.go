package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"alcr/internal/config"
	"alcr/internal/rules"
	"alcr/internal/yamlscan"
)

// abs resolves a command line path against the working directory.
func (a *app) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(a.workDir, path)
}

// loadConfig reads the config file, layers the environment on top and
// resolves path options against the working directory. An explicitly
// named file must exist; the default one is optional.
func (a *app) loadConfig(file string) (config.Config, error) {
	explicit := file != ""
	if !explicit {
		file = config.DefaultFile
	}
	path := a.abs(file)

	var base config.Config
	if explicit || yamlscan.Exists(a.fs, path) {
		loaded, err := config.LoadFile(a.fs, path)
		if err != nil {
			return config.Config{}, err
		}
		base = loaded
	}

	cfg := config.Resolve(base, rules.KnownOptions, a.environ)

	if inv := cfg.String(rules.IDVariablesNaming, config.OptInventory); inv != "" {
		cfg = cfg.With(rules.IDVariablesNaming, config.OptInventory, a.abs(inv))
	}
	if paths := cfg.PathList(rules.IDVariablesNaming, config.OptRolesPath); len(paths) > 0 {
		for i, p := range paths {
			paths[i] = a.abs(p)
		}
		cfg = cfg.With(rules.IDVariablesNaming, config.OptRolesPath, strings.Join(paths, ":"))
	}
	return cfg, nil
}

// registry builds the rule registry from the config file and environment.
func (a *app) registry(file string) (*rules.Registry, error) {
	cfg, err := a.loadConfig(file)
	if err != nil {
		return nil, err
	}
	reg, err := rules.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid rule configuration: %w", err)
	}
	return reg, nil
}
