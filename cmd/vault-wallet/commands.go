package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/vault-contract/deploy"
	rpcvault "github.com/nspcc-dev/vault-contract/rpc/vault"
	"github.com/spf13/cobra"
)

var (
	nefPath      string
	manifestPath string
	ownerFlag    string
	toFlag       string
	amountFlag   string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the Vault contract",
	Long: `Deploy the Vault contract from the given NEF and manifest files. The
deploying account becomes the vault owner unless --owner is given. The command
is idempotent: if the contract is already on the chain, its address is printed
and nothing is sent.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		nefBytes, err := os.ReadFile(nefPath)
		if err != nil {
			return fmt.Errorf("read NEF file: %w", err)
		}
		nefFile, err := nef.FileFromBytes(nefBytes)
		if err != nil {
			return fmt.Errorf("parse NEF file: %w", err)
		}

		manifestBytes, err := os.ReadFile(manifestPath)
		if err != nil {
			return fmt.Errorf("read manifest file: %w", err)
		}
		var m manifest.Manifest
		if err := json.Unmarshal(manifestBytes, &m); err != nil {
			return fmt.Errorf("parse manifest file: %w", err)
		}

		var owner util.Uint160
		if ownerFlag != "" {
			owner, err = parseUint160(ownerFlag)
			if err != nil {
				return fmt.Errorf("invalid owner address %q: %w", ownerFlag, err)
			}
		}

		c, err := newRPCClient(cmd.Context())
		if err != nil {
			return err
		}
		acc, err := openAccount()
		if err != nil {
			return err
		}

		addr, err := deploy.Deploy(cmd.Context(), deploy.Prm{
			Logger:       logger,
			Blockchain:   c,
			LocalAccount: acc,
			NEF:          nefFile,
			Manifest:     m,
			Owner:        owner,
		})
		if err != nil {
			return fmt.Errorf("deploy contract: %w", err)
		}

		fmt.Println(addr.StringLE())
		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the vault GAS balance",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reader, err := newVaultReader(cmd)
		if err != nil {
			return err
		}
		b, err := reader.Balance()
		if err != nil {
			return fmt.Errorf("get balance: %w", err)
		}
		fmt.Println(fixedn.Fixed8(b.Int64()).String())
		return nil
	},
}

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Print the vault owner address",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reader, err := newVaultReader(cmd)
		if err != nil {
			return err
		}
		owner, err := reader.Owner()
		if err != nil {
			return fmt.Errorf("get owner: %w", err)
		}
		fmt.Println(address.Uint160ToString(owner))
		return nil
	},
}

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Deposit GAS into the vault",
	Long: `Transfer GAS from the signing account to the vault contract. Anyone
can deposit, no vault ownership is required.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		amount, err := parseGAS(amountFlag)
		if err != nil {
			return err
		}
		vault, err := vaultHash()
		if err != nil {
			return err
		}

		act, acc, err := newActor(cmd.Context())
		if err != nil {
			return err
		}

		txHash, vub, err := rpcvault.Deposit(act, vault, acc.ScriptHash(), big.NewInt(amount))
		return awaitTx(act, txHash, vub, err)
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw GAS from the vault (owner only)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		amount, err := parseGAS(amountFlag)
		if err != nil {
			return err
		}
		to, err := parseUint160(toFlag)
		if err != nil {
			return fmt.Errorf("invalid recipient address %q: %w", toFlag, err)
		}

		vault, act, err := newVaultContract(cmd)
		if err != nil {
			return err
		}

		txHash, vub, err := vault.Withdraw(to, big.NewInt(amount))
		return awaitTx(act, txHash, vub, err)
	},
}

var withdrawAllCmd = &cobra.Command{
	Use:   "withdraw-all",
	Short: "Withdraw the whole vault balance (owner only)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		to, err := parseUint160(toFlag)
		if err != nil {
			return fmt.Errorf("invalid recipient address %q: %w", toFlag, err)
		}

		vault, act, err := newVaultContract(cmd)
		if err != nil {
			return err
		}

		txHash, vub, err := vault.WithdrawAll(to)
		return awaitTx(act, txHash, vub, err)
	},
}

var transferOwnershipCmd = &cobra.Command{
	Use:   "transfer-ownership",
	Short: "Transfer vault ownership to another account (owner only)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		newOwner, err := parseUint160(toFlag)
		if err != nil {
			return fmt.Errorf("invalid new owner address %q: %w", toFlag, err)
		}

		vault, act, err := newVaultContract(cmd)
		if err != nil {
			return err
		}

		txHash, vub, err := vault.TransferOwnership(newOwner)
		return awaitTx(act, txHash, vub, err)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the vault withdrawal journal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := newRPCClient(cmd.Context())
		if err != nil {
			return err
		}
		vault, err := vaultHash()
		if err != nil {
			return err
		}

		inv := invoker.New(c, nil)
		reader := rpcvault.NewReader(inv, vault)

		sessionID, iter, err := reader.Withdrawals()
		if err != nil {
			if !errors.Is(err, unwrap.ErrNoSessionID) {
				return fmt.Errorf("get withdrawals: %w", err)
			}
			// Server lacking session support, fetch everything in one script.
			items, err := reader.WithdrawalsExpanded(maxJournalItems)
			if err != nil {
				return fmt.Errorf("get withdrawals: %w", err)
			}
			if err := printWithdrawals(items); err != nil {
				return err
			}
			if len(items) == maxJournalItems {
				fmt.Fprintf(os.Stderr, "only the first %d records are shown, connect to a server with sessions enabled for the full journal\n", maxJournalItems)
			}
			return nil
		}
		defer func() { _ = inv.TerminateSession(sessionID) }()

		for {
			items, err := inv.TraverseIterator(sessionID, &iter, journalPageSize)
			if err != nil {
				return fmt.Errorf("traverse withdrawals: %w", err)
			}
			if len(items) == 0 {
				return nil
			}
			if err := printWithdrawals(items); err != nil {
				return err
			}
		}
	},
}

const (
	journalPageSize = 100
	maxJournalItems = 1000
)

func printWithdrawals(items []stackitem.Item) error {
	for _, item := range items {
		var rec rpcvault.WithdrawalRecord
		if err := rec.FromStackItem(item); err != nil {
			return fmt.Errorf("decode withdrawal record: %w", err)
		}
		fmt.Printf("%s\t%s\t%s\n", address.Uint160ToString(rec.To),
			fixedn.Fixed8(rec.Amount.Int64()).String(), rec.TxHash.StringLE())
	}
	return nil
}

func newVaultReader(cmd *cobra.Command) (*rpcvault.ContractReader, error) {
	c, err := newRPCClient(cmd.Context())
	if err != nil {
		return nil, err
	}
	vault, err := vaultHash()
	if err != nil {
		return nil, err
	}
	return rpcvault.NewReader(invoker.New(c, nil), vault), nil
}

func newVaultContract(cmd *cobra.Command) (*rpcvault.Contract, *actor.Actor, error) {
	vault, err := vaultHash()
	if err != nil {
		return nil, nil, err
	}
	act, _, err := newActor(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return rpcvault.New(act, vault), act, nil
}

func init() {
	deployCmd.Flags().StringVar(&nefPath, "nef", "", "path to the compiled contract NEF file")
	deployCmd.Flags().StringVar(&manifestPath, "manifest", "", "path to the contract manifest file")
	deployCmd.Flags().StringVar(&ownerFlag, "owner", "", "vault owner address (defaults to the deploying account)")
	_ = deployCmd.MarkFlagRequired("nef")
	_ = deployCmd.MarkFlagRequired("manifest")

	depositCmd.Flags().StringVar(&amountFlag, "amount", "", "GAS amount to deposit")
	_ = depositCmd.MarkFlagRequired("amount")

	withdrawCmd.Flags().StringVar(&toFlag, "to", "", "recipient address")
	withdrawCmd.Flags().StringVar(&amountFlag, "amount", "", "GAS amount to withdraw")
	_ = withdrawCmd.MarkFlagRequired("to")
	_ = withdrawCmd.MarkFlagRequired("amount")

	withdrawAllCmd.Flags().StringVar(&toFlag, "to", "", "recipient address")
	_ = withdrawAllCmd.MarkFlagRequired("to")

	transferOwnershipCmd.Flags().StringVar(&toFlag, "to", "", "new owner address")
	_ = transferOwnershipCmd.MarkFlagRequired("to")
}
