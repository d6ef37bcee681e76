package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// config mirrors the TOML config file. Every value can be overridden by the
// corresponding command-line flag.
type config struct {
	RPCEndpoint string `toml:"rpc_endpoint"`
	Wallet      string `toml:"wallet"`
	Account     string `toml:"account"`
	Contract    string `toml:"contract"`
}

func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "vault-wallet.toml"), nil
}

// loadConfig reads the TOML config from the given path. An empty path means
// the default location, where a missing file is not an error.
func loadConfig(path string) (config, error) {
	var (
		cfg       config
		defaulted bool
		err       error
	)

	if path == "" {
		path, err = defaultConfigPath()
		if err != nil {
			return cfg, fmt.Errorf("resolve default config path: %w", err)
		}
		defaulted = true
	}

	_, err = toml.DecodeFile(path, &cfg)
	if err != nil {
		if defaulted && errors.Is(err, fs.ErrNotExist) {
			return config{}, nil
		}
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}

	return cfg, nil
}

// applyConfig fills the unset flag values from the config file.
func applyConfig(cfg config) {
	if rpcEndpoint == "" {
		rpcEndpoint = cfg.RPCEndpoint
	}
	if walletPath == "" {
		walletPath = cfg.Wallet
	}
	if accountAddr == "" {
		accountAddr = cfg.Account
	}
	if contractAddr == "" {
		contractAddr = cfg.Contract
	}
}
