package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const passwordEnv = "VAULT_WALLET_PASSWORD"

func newRPCClient(ctx context.Context) (*rpcclient.Client, error) {
	c, err := rpcclient.New(ctx, rpcEndpoint, rpcclient.Options{})
	if err != nil {
		return nil, fmt.Errorf("create RPC client for %s: %w", rpcEndpoint, err)
	}
	if err := c.Init(); err != nil {
		return nil, fmt.Errorf("init RPC client for %s: %w", rpcEndpoint, err)
	}
	return c, nil
}

// openAccount reads the NEP-6 wallet and decrypts the signing account. The
// password is taken from the VAULT_WALLET_PASSWORD environment variable or
// prompted on the terminal.
func openAccount() (*wallet.Account, error) {
	if walletPath == "" {
		return nil, errors.New("missing wallet path, set --wallet or \"wallet\" in config")
	}

	w, err := wallet.NewWalletFromFile(walletPath)
	if err != nil {
		return nil, fmt.Errorf("open wallet %s: %w", walletPath, err)
	}

	var acc *wallet.Account
	if accountAddr != "" {
		accHash, err := parseUint160(accountAddr)
		if err != nil {
			return nil, fmt.Errorf("invalid account address %q: %w", accountAddr, err)
		}
		acc = w.GetAccount(accHash)
		if acc == nil {
			return nil, fmt.Errorf("wallet has no account %s", accountAddr)
		}
	} else {
		if len(w.Accounts) == 0 {
			return nil, fmt.Errorf("wallet %s has no accounts", walletPath)
		}
		acc = w.Accounts[0]
	}

	pass, ok := os.LookupEnv(passwordEnv)
	if !ok {
		fmt.Fprintf(os.Stderr, "Enter password for %s: ", acc.Address)
		rawPass, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		pass = string(rawPass)
	}

	if err := acc.Decrypt(pass, w.Scrypt); err != nil {
		return nil, fmt.Errorf("decrypt account %s: %w", acc.Address, err)
	}

	return acc, nil
}

func newActor(ctx context.Context) (*actor.Actor, *wallet.Account, error) {
	c, err := newRPCClient(ctx)
	if err != nil {
		return nil, nil, err
	}

	acc, err := openAccount()
	if err != nil {
		return nil, nil, err
	}

	act, err := actor.NewSimple(c, acc)
	if err != nil {
		return nil, nil, fmt.Errorf("init transaction sender: %w", err)
	}

	return act, acc, nil
}

func vaultHash() (util.Uint160, error) {
	if contractAddr == "" {
		return util.Uint160{}, errors.New("missing contract address, set --contract or \"contract\" in config")
	}
	h, err := parseUint160(contractAddr)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("invalid contract address %q: %w", contractAddr, err)
	}
	return h, nil
}

// parseUint160 accepts both base58-encoded Neo addresses and hex-encoded
// script hashes (with or without 0x prefix).
func parseUint160(s string) (util.Uint160, error) {
	if h, err := address.StringToUint160(s); err == nil {
		return h, nil
	}
	return util.Uint160DecodeStringLE(strings.TrimPrefix(s, "0x"))
}

// parseGAS converts a decimal GAS amount like "1.5" to its fixed-point
// representation.
func parseGAS(s string) (int64, error) {
	v, err := fixedn.Fixed8FromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid GAS amount %q: %w", s, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("GAS amount must be positive, got %q", s)
	}
	return int64(v), nil
}

// awaitTx blocks until the sent transaction is persisted and checks its
// execution result.
func awaitTx(act *actor.Actor, txHash util.Uint256, vub uint32, err error) error {
	if err != nil {
		return fmt.Errorf("send transaction: %w", err)
	}

	logger.Info("transaction sent, awaiting persistence...", zap.Stringer("tx", txHash))

	aer, err := act.Wait(txHash, vub, nil)
	if err != nil {
		return fmt.Errorf("await transaction %s: %w", txHash.StringLE(), err)
	}
	if aer.VMState != vmstate.Halt {
		return fmt.Errorf("transaction %s failed: %s", txHash.StringLE(), aer.FaultException)
	}

	logger.Info("transaction successfully persisted", zap.Stringer("tx", txHash))
	return nil
}
