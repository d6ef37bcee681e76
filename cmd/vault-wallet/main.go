// Command vault-wallet is a CLI to the Vault contract: it deploys the
// contract and performs deposits, withdrawals and ownership transfers on
// behalf of a NEP-6 wallet account.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgPath string
	verbose bool

	// effective settings, config file values overridden by flags
	rpcEndpoint  string
	walletPath   string
	accountAddr  string
	contractAddr string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vault-wallet",
	Short: "Wallet CLI for the Vault contract",
	Long: `vault-wallet manages a single-owner GAS vault deployed on a Neo N3 chain.

It connects to a Neo RPC node, signs transactions with an account from a
NEP-6 wallet file and submits vault operations: deposits (open to anyone),
withdrawals and ownership transfers (vault owner only).

Settings can be persisted in a TOML config file (default:
~/.config/vault-wallet.toml) and overridden with flags per invocation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		logger, err = newLogger(verbose)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		applyConfig(cfg)

		if rpcEndpoint == "" {
			return fmt.Errorf("missing RPC endpoint, set --rpc-endpoint or %q in config", "rpc_endpoint")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to TOML config file (default: ~/.config/vault-wallet.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&rpcEndpoint, "rpc-endpoint", "r", "", "network address of the Neo RPC server")
	rootCmd.PersistentFlags().StringVarP(&walletPath, "wallet", "w", "", "path to NEP-6 wallet file")
	rootCmd.PersistentFlags().StringVarP(&accountAddr, "account", "a", "", "address of the wallet account to sign with (default: first account)")
	rootCmd.PersistentFlags().StringVarP(&contractAddr, "contract", "c", "", "address or script hash of the Vault contract")

	rootCmd.AddCommand(
		deployCmd,
		balanceCmd,
		ownerCmd,
		depositCmd,
		withdrawCmd,
		withdrawAllCmd,
		transferOwnershipCmd,
		historyCmd,
	)
}
