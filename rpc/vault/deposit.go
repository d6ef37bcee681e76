package vault

import (
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/gas"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/nep17"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Deposit transfers amount of native GAS from the given account to the vault.
// The vault does not distinguish this call from a bare GAS transfer to its
// address, both are accepted and produce Deposited notification. The values
// returned are the hash of the transfer transaction, its ValidUntilBlock
// value and error if any.
func Deposit(act nep17.Actor, vault util.Uint160, from util.Uint160, amount *big.Int) (util.Uint256, uint32, error) {
	return gas.New(act).Transfer(from, vault, amount, nil)
}

// DepositTransaction is like Deposit, but the signed transfer transaction is
// returned to the caller instead of being sent to the network.
func DepositTransaction(act nep17.Actor, vault util.Uint160, from util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return gas.New(act).TransferTransaction(from, vault, amount, nil)
}
