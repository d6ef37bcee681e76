package vault

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
	"github.com/nspcc-dev/vault-contract/common"
)

// WithdrawalRecord is an entry of the vault's withdrawal journal. It is
// appended on every successful withdrawal and never removed.
type WithdrawalRecord struct {
	// To is the account that received the funds.
	To interop.Hash160
	// Amount of GAS transferred, in its native precision.
	Amount int
	// TxHash is the hash of the transaction that performed the withdrawal.
	TxHash interop.Hash256
}

const (
	ownerKey   = 'o'
	counterKey = 'n'

	journalPrefix = 'w'
)

// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	ctx := storage.GetContext()

	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	args := data.(struct {
		owner interop.Hash160
	})

	owner := args.owner
	if len(owner) == 0 {
		owner = runtime.GetScriptContainer().Sender
	}
	if len(owner) != interop.Hash160Len {
		panic("incorrect length of owner script hash")
	}

	storage.Put(ctx, ownerKey, owner)

	runtime.Log("vault contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by the vault owner.
func Update(nefFile, manifest []byte, data any) {
	common.CheckOwnerWitness(loadOwner(storage.GetReadOnlyContext()))

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, common.AppendVersion(data))
	runtime.Log("vault contract updated")
}

// OnNEP17Payment is a callback for NEP-17 compatible native GAS contract.
// This is the vault's deposit entry point: any account can top the vault up
// by transferring GAS to its address, there is no sender restriction. Only
// positive amounts of native GAS are accepted, everything else aborts the
// transfer transaction.
//
// It produces Deposited notification.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	caller := runtime.GetCallingScriptHash()
	if !caller.Equals(gas.Hash) {
		common.AbortWithMessage("vault accepts GAS only")
	}

	if amount <= 0 {
		common.AbortWithMessage("amount must be positive")
	}

	runtime.Notify("Deposited", from, amount)
}

// Withdraw transfers the specified amount of vault's GAS to the specified
// account. It can be invoked only by the vault owner.
//
// Amount is checked against the current vault balance before the transfer
// is attempted, and the transfer result is verified: a recipient that does
// not accept GAS fails the whole invocation leaving the balance intact.
//
// It produces Withdrawn notification.
func Withdraw(to interop.Hash160, amount int) {
	ctx := storage.GetContext()
	common.CheckOwnerWitness(loadOwner(ctx))

	if len(to) != interop.Hash160Len {
		panic("invalid recipient")
	}

	if amount <= 0 {
		panic("amount must be positive")
	}

	self := runtime.GetExecutingScriptHash()
	if amount > gas.BalanceOf(self) {
		panic("insufficient balance")
	}

	performTransfer(ctx, self, to, amount)
}

// WithdrawAll transfers all GAS the vault holds at the moment of the call to
// the specified account. It can be invoked only by the vault owner. Calling
// it on an empty vault is an error.
//
// It produces Withdrawn notification.
func WithdrawAll(to interop.Hash160) {
	ctx := storage.GetContext()
	common.CheckOwnerWitness(loadOwner(ctx))

	if len(to) != interop.Hash160Len {
		panic("invalid recipient")
	}

	self := runtime.GetExecutingScriptHash()
	amount := gas.BalanceOf(self)
	if amount == 0 {
		panic("nothing to withdraw")
	}

	performTransfer(ctx, self, to, amount)
}

// TransferOwnership reassigns the vault to a new owner. It can be invoked
// only by the current owner.
//
// It produces OwnerChanged notification.
func TransferOwnership(newOwner interop.Hash160) {
	ctx := storage.GetContext()

	oldOwner := loadOwner(ctx)
	common.CheckOwnerWitness(oldOwner)

	if len(newOwner) != interop.Hash160Len {
		panic("invalid recipient")
	}

	storage.Put(ctx, ownerKey, newOwner)

	runtime.Notify("OwnerChanged", oldOwner, newOwner)
}

// Balance returns the amount of GAS the vault currently holds. This is the
// native GAS balance of the contract account, so it reflects direct
// transfers too.
func Balance() int {
	return gas.BalanceOf(runtime.GetExecutingScriptHash())
}

// Owner returns the script hash of the current vault owner.
func Owner() interop.Hash160 {
	return loadOwner(storage.GetReadOnlyContext())
}

// Withdrawals returns an iterator over all performed withdrawals in the
// order they were made. Iterated values are WithdrawalRecord structures.
func Withdrawals() iterator.Iterator {
	return storage.Find(storage.GetReadOnlyContext(), []byte{journalPrefix},
		storage.ValuesOnly|storage.DeserializeValues)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

func performTransfer(ctx storage.Context, self, to interop.Hash160, amount int) {
	transferred := gas.Transfer(self, to, amount, nil)
	if !transferred {
		panic("failed to transfer GAS, aborting")
	}

	recordWithdrawal(ctx, to, amount)
	runtime.Notify("Withdrawn", to, amount)
}

func recordWithdrawal(ctx storage.Context, to interop.Hash160, amount int) {
	var seq int
	if v := storage.Get(ctx, counterKey); v != nil {
		seq = v.(int)
	}

	tx := runtime.GetScriptContainer()
	record := WithdrawalRecord{
		To:     to,
		Amount: amount,
		TxHash: tx.Hash,
	}

	common.SetSerialized(ctx, journalKey(seq), record)

	storage.Put(ctx, counterKey, seq+1)
}

// journalKey builds the storage key of a journal record. The sequence number
// suffix is fixed-width big-endian, so storage.Find returns records in the
// order they were written.
func journalKey(seq int) []byte {
	key := []byte{journalPrefix, 0, 0, 0, 0, 0, 0, 0, 0}
	for i := len(key) - 1; i >= 1; i-- {
		key[i] = byte(seq & 0xff)
		seq = seq >> 8
	}
	return key
}

func loadOwner(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, ownerKey).(interop.Hash160)
}
