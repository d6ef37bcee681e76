// Package deploy provides Vault contract deployment routine.
package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"go.uber.org/zap"
)

// Blockchain groups services provided by particular Neo blockchain network
// that are required for Vault contract deployment.
type Blockchain interface {
	// RPCActor groups functions needed to compose and send transactions to the
	// blockchain.
	actor.RPCActor

	// GetContractStateByHash returns network state of the smart contract by its
	// address. GetContractStateByHash returns error with 'Unknown contract'
	// substring if requested contract is missing.
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
}

// Prm groups deployment parameters of the Vault contract.
type Prm struct {
	Logger *zap.Logger

	// Particular Neo blockchain instance to be used as the deployment target.
	Blockchain Blockchain

	// Account that signs and pays for the deployment transaction. It also
	// becomes the vault owner unless Owner is set.
	LocalAccount *wallet.Account

	NEF      nef.File
	Manifest manifest.Manifest

	// Owner is the initial vault owner. Zero value defaults to the
	// LocalAccount's address.
	Owner util.Uint160
}

// Deploy initializes Vault contract on the given Neo blockchain. The
// contract address is a function of the deploying account and the contract
// itself, so Deploy is idempotent: if the contract is already on the chain,
// its address is returned without any transaction being sent.
func Deploy(ctx context.Context, prm Prm) (util.Uint160, error) {
	switch {
	case prm.Logger == nil:
		return util.Uint160{}, errors.New("missing logger")
	case prm.Blockchain == nil:
		return util.Uint160{}, errors.New("missing blockchain client")
	case prm.LocalAccount == nil:
		return util.Uint160{}, errors.New("missing local account")
	}

	ctrAddress := state.CreateContractHash(prm.LocalAccount.ScriptHash(), prm.NEF.Checksum, prm.Manifest.Name)

	cs, err := prm.Blockchain.GetContractStateByHash(ctrAddress)
	if err == nil && cs != nil {
		prm.Logger.Info("vault contract is already on the chain", zap.Stringer("address", ctrAddress))
		return ctrAddress, nil
	}

	localActor, err := actor.NewSimple(prm.Blockchain, prm.LocalAccount)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("init transaction sender from local account: %w", err)
	}

	var ownerArg any
	if !prm.Owner.Equals(util.Uint160{}) {
		ownerArg = prm.Owner
	}

	prm.Logger.Info("deploying vault contract...", zap.Stringer("address", ctrAddress))

	txHash, vub, err := management.New(localActor).Deploy(&prm.NEF, &prm.Manifest, []any{ownerArg})
	if err != nil {
		return util.Uint160{}, fmt.Errorf("send deployment transaction: %w", err)
	}

	aer, err := awaitTransaction(ctx, localActor, txHash, vub)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("await deployment transaction %s: %w", txHash.StringLE(), err)
	}

	if aer.VMState != vmstate.Halt {
		return util.Uint160{}, fmt.Errorf("deployment transaction %s failed: %s", txHash.StringLE(), aer.FaultException)
	}

	prm.Logger.Info("vault contract successfully deployed",
		zap.Stringer("address", ctrAddress), zap.Stringer("tx", txHash))

	return ctrAddress, nil
}

// awaitTransaction blocks until the transaction is persisted on the chain,
// the waiting fails or the context is done, whichever happens first.
func awaitTransaction(ctx context.Context, a *actor.Actor, txHash util.Uint256, vub uint32) (*state.AppExecResult, error) {
	type waitResult struct {
		aer *state.AppExecResult
		err error
	}

	ch := make(chan waitResult, 1)
	go func() {
		aer, err := a.Wait(txHash, vub, nil)
		ch <- waitResult{aer, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.aer, res.err
	}
}
