package tests

import (
	"math/big"
	"path"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/core/native/nativenames"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

const vaultPath = "../contracts/vault"

func deployVaultContract(t *testing.T, e *neotest.Executor, owner any) util.Uint160 {
	c := neotest.CompileFile(t, e.CommitteeHash, vaultPath, path.Join(vaultPath, "config.yml"))
	e.DeployContract(t, c, []any{owner})
	return c.Hash
}

func newVaultInvoker(t *testing.T) (*neotest.Executor, util.Uint160, neotest.Signer) {
	e := newExecutor(t)
	owner := e.NewAccount(t)
	h := deployVaultContract(t, e, owner.ScriptHash())
	return e, h, owner
}

func gasInvoker(t *testing.T, e *neotest.Executor, signer neotest.Signer) *neotest.ContractInvoker {
	gasHash, err := e.Chain.GetNativeContractScriptHash(nativenames.Gas)
	require.NoError(t, err)
	return e.NewInvoker(gasHash, signer)
}

// depositGAS transfers amount of GAS from the signer to the vault and
// returns the hash of the transfer transaction.
func depositGAS(t *testing.T, e *neotest.Executor, from neotest.Signer, vault util.Uint160, amount int64) util.Uint256 {
	return gasInvoker(t, e, from).Invoke(t, stackitem.NewBool(true), "transfer",
		from.ScriptHash(), vault, amount, nil)
}

func vaultBalance(t *testing.T, e *neotest.Executor, vault util.Uint160) int64 {
	s, err := e.CommitteeInvoker(vault).TestInvoke(t, "balance")
	require.NoError(t, err)
	return s.Pop().BigInt().Int64()
}

func vaultOwner(t *testing.T, e *neotest.Executor, vault util.Uint160) util.Uint160 {
	s, err := e.CommitteeInvoker(vault).TestInvoke(t, "owner")
	require.NoError(t, err)
	owner, err := util.Uint160DecodeBytesBE(s.Pop().Bytes())
	require.NoError(t, err)
	return owner
}

func TestVault_DeployDefaultOwner(t *testing.T) {
	e := newExecutor(t)
	h := deployVaultContract(t, e, nil)

	require.Equal(t, e.Validator.ScriptHash(), vaultOwner(t, e, h))
	require.EqualValues(t, 0, vaultBalance(t, e, h))
}

func TestVault_DeployExplicitOwner(t *testing.T) {
	e, h, owner := newVaultInvoker(t)

	require.Equal(t, owner.ScriptHash(), vaultOwner(t, e, h))
}

func TestVault_Deposit(t *testing.T) {
	e, h, _ := newVaultInvoker(t)

	acc := e.NewAccount(t)
	const amount = 10_0000

	txHash := depositGAS(t, e, acc, h, amount)
	require.EqualValues(t, amount, vaultBalance(t, e, h))

	e.CheckTxNotificationEvent(t, txHash, 1, state.NotificationEvent{
		ScriptHash: h,
		Name:       "Deposited",
		Item: stackitem.NewArray([]stackitem.Item{
			stackitem.Make(acc.ScriptHash().BytesBE()),
			stackitem.Make(amount),
		}),
	})
}

func TestVault_DepositZeroValue(t *testing.T) {
	e, h, _ := newVaultInvoker(t)

	acc := e.NewAccount(t)
	gasInvoker(t, e, acc).InvokeFail(t, "ABORT", "transfer",
		acc.ScriptHash(), h, int64(0), nil)

	require.EqualValues(t, 0, vaultBalance(t, e, h))
}

func TestVault_DepositNonGAS(t *testing.T) {
	e, h, _ := newVaultInvoker(t)

	neoHash, err := e.Chain.GetNativeContractScriptHash(nativenames.Neo)
	require.NoError(t, err)

	e.NewInvoker(neoHash, e.Validator).InvokeFail(t, "ABORT", "transfer",
		e.Validator.ScriptHash(), h, int64(1), nil)

	require.EqualValues(t, 0, vaultBalance(t, e, h))
}

func TestVault_Withdraw(t *testing.T) {
	e, h, owner := newVaultInvoker(t)

	depositGAS(t, e, owner, h, 10_0000)

	recipient := e.NewAccount(t)
	recipientBalance := e.Chain.GetUtilityTokenBalance(recipient.ScriptHash())

	cOwner := e.NewInvoker(h, owner)
	txHash := cOwner.Invoke(t, stackitem.Null{}, "withdraw", recipient.ScriptHash(), 4_0000)

	require.EqualValues(t, 6_0000, vaultBalance(t, e, h))
	require.Equal(t, new(big.Int).Add(recipientBalance, big.NewInt(4_0000)),
		e.Chain.GetUtilityTokenBalance(recipient.ScriptHash()))

	e.CheckTxNotificationEvent(t, txHash, 1, state.NotificationEvent{
		ScriptHash: h,
		Name:       "Withdrawn",
		Item: stackitem.NewArray([]stackitem.Item{
			stackitem.Make(recipient.ScriptHash().BytesBE()),
			stackitem.Make(4_0000),
		}),
	})
}

func TestVault_WithdrawUnauthorized(t *testing.T) {
	e, h, owner := newVaultInvoker(t)

	depositGAS(t, e, owner, h, 10_0000)

	stranger := e.NewAccount(t)
	cStranger := e.NewInvoker(h, stranger)

	cStranger.InvokeFail(t, "owner witness check failed", "withdraw", stranger.ScriptHash(), 1_0000)
	cStranger.InvokeFail(t, "owner witness check failed", "withdrawAll", stranger.ScriptHash())
	cStranger.InvokeFail(t, "owner witness check failed", "transferOwnership", stranger.ScriptHash())

	require.EqualValues(t, 10_0000, vaultBalance(t, e, h))
	require.Equal(t, owner.ScriptHash(), vaultOwner(t, e, h))
}

func TestVault_WithdrawInsufficientBalance(t *testing.T) {
	e, h, owner := newVaultInvoker(t)

	depositGAS(t, e, owner, h, 5_0000)

	cOwner := e.NewInvoker(h, owner)
	cOwner.InvokeFail(t, "insufficient balance", "withdraw", owner.ScriptHash(), 5_0001)

	require.EqualValues(t, 5_0000, vaultBalance(t, e, h))
}

func TestVault_WithdrawBadArgs(t *testing.T) {
	e, h, owner := newVaultInvoker(t)

	depositGAS(t, e, owner, h, 5_0000)

	cOwner := e.NewInvoker(h, owner)
	cOwner.InvokeFail(t, "invalid recipient", "withdraw", nil, 1_0000)
	cOwner.InvokeFail(t, "invalid recipient", "withdraw", []byte{1, 2, 3}, 1_0000)
	cOwner.InvokeFail(t, "amount must be positive", "withdraw", owner.ScriptHash(), 0)
	cOwner.InvokeFail(t, "amount must be positive", "withdraw", owner.ScriptHash(), -1)

	require.EqualValues(t, 5_0000, vaultBalance(t, e, h))
}

// Two sequential identical withdrawals each re-check sufficiency against the
// current balance, so the second one fails once the first leaves too little.
func TestVault_WithdrawSequentialRecheck(t *testing.T) {
	e, h, owner := newVaultInvoker(t)

	depositGAS(t, e, owner, h, 10_0000)

	recipient := e.NewAccount(t)
	cOwner := e.NewInvoker(h, owner)

	cOwner.Invoke(t, stackitem.Null{}, "withdraw", recipient.ScriptHash(), 6_0000)
	cOwner.InvokeFail(t, "insufficient balance", "withdraw", recipient.ScriptHash(), 6_0000)

	require.EqualValues(t, 4_0000, vaultBalance(t, e, h))
}

func TestVault_WithdrawRejectingRecipient(t *testing.T) {
	e, h, owner := newVaultInvoker(t)

	depositGAS(t, e, owner, h, 10_0000)

	const rejectPath = "../internal/testcontracts/gasreject"
	rejectCtr := neotest.CompileFile(t, e.CommitteeHash, rejectPath, path.Join(rejectPath, "config.yml"))
	e.DeployContract(t, rejectCtr, nil)

	cOwner := e.NewInvoker(h, owner)
	cOwner.InvokeFail(t, "no payments accepted", "withdraw", rejectCtr.Hash, 1_0000)

	require.EqualValues(t, 10_0000, vaultBalance(t, e, h))
}

func TestVault_WithdrawAll(t *testing.T) {
	e, h, owner := newVaultInvoker(t)

	depositGAS(t, e, owner, h, 7_0000)

	recipient := e.NewAccount(t)
	recipientBalance := e.Chain.GetUtilityTokenBalance(recipient.ScriptHash())

	cOwner := e.NewInvoker(h, owner)
	txHash := cOwner.Invoke(t, stackitem.Null{}, "withdrawAll", recipient.ScriptHash())

	require.EqualValues(t, 0, vaultBalance(t, e, h))
	require.Equal(t, new(big.Int).Add(recipientBalance, big.NewInt(7_0000)),
		e.Chain.GetUtilityTokenBalance(recipient.ScriptHash()))

	e.CheckTxNotificationEvent(t, txHash, 1, state.NotificationEvent{
		ScriptHash: h,
		Name:       "Withdrawn",
		Item: stackitem.NewArray([]stackitem.Item{
			stackitem.Make(recipient.ScriptHash().BytesBE()),
			stackitem.Make(7_0000),
		}),
	})

	cOwner.InvokeFail(t, "nothing to withdraw", "withdrawAll", recipient.ScriptHash())
}

func TestVault_TransferOwnership(t *testing.T) {
	e, h, owner := newVaultInvoker(t)

	depositGAS(t, e, owner, h, 5_0000)

	newOwner := e.NewAccount(t)
	cOwner := e.NewInvoker(h, owner)

	cOwner.InvokeFail(t, "invalid recipient", "transferOwnership", nil)

	txHash := cOwner.Invoke(t, stackitem.Null{}, "transferOwnership", newOwner.ScriptHash())
	require.Equal(t, newOwner.ScriptHash(), vaultOwner(t, e, h))

	e.CheckTxNotificationEvent(t, txHash, 0, state.NotificationEvent{
		ScriptHash: h,
		Name:       "OwnerChanged",
		Item: stackitem.NewArray([]stackitem.Item{
			stackitem.Make(owner.ScriptHash().BytesBE()),
			stackitem.Make(newOwner.ScriptHash().BytesBE()),
		}),
	})

	// the old owner has no power anymore, the new one has it all
	cOwner.InvokeFail(t, "owner witness check failed", "withdraw", owner.ScriptHash(), 1_0000)
	e.NewInvoker(h, newOwner).Invoke(t, stackitem.Null{}, "withdraw", newOwner.ScriptHash(), 1_0000)
	require.EqualValues(t, 4_0000, vaultBalance(t, e, h))
}

func TestVault_WithdrawalJournal(t *testing.T) {
	e, h, owner := newVaultInvoker(t)

	depositGAS(t, e, owner, h, 10_0000)

	first := e.NewAccount(t)
	second := e.NewAccount(t)
	cOwner := e.NewInvoker(h, owner)

	cOwner.Invoke(t, stackitem.Null{}, "withdraw", first.ScriptHash(), 2_0000)
	cOwner.Invoke(t, stackitem.Null{}, "withdraw", second.ScriptHash(), 3_0000)

	s, err := cOwner.TestInvoke(t, "withdrawals")
	require.NoError(t, err)

	iter := s.Pop().Value().(*storage.Iterator)
	records := iteratorToArray(iter)
	require.Len(t, records, 2)

	expected := []struct {
		to     util.Uint160
		amount int64
	}{
		{first.ScriptHash(), 2_0000},
		{second.ScriptHash(), 3_0000},
	}
	for i, rec := range records {
		fields, ok := rec.Value().([]stackitem.Item)
		require.True(t, ok)
		require.Len(t, fields, 3)

		to, err := fields[0].TryBytes()
		require.NoError(t, err)
		require.Equal(t, expected[i].to.BytesBE(), to)

		amount, err := fields[1].TryInteger()
		require.NoError(t, err)
		require.EqualValues(t, expected[i].amount, amount.Int64())

		txHash, err := fields[2].TryBytes()
		require.NoError(t, err)
		require.Len(t, txHash, util.Uint256Size)
	}
}

// Journal keys are fixed-width, so iteration keeps insertion order even for
// sequence numbers that no longer fit into a single byte.
func TestVault_WithdrawalJournalOrder(t *testing.T) {
	e, h, owner := newVaultInvoker(t)

	const count = 258
	depositGAS(t, e, owner, h, count*(count+1)/2)

	recipient := e.NewAccount(t)
	cOwner := e.NewInvoker(h, owner)
	for i := 1; i <= count; i++ {
		cOwner.Invoke(t, stackitem.Null{}, "withdraw", recipient.ScriptHash(), i)
	}

	s, err := cOwner.TestInvoke(t, "withdrawals")
	require.NoError(t, err)

	records := iteratorToArray(s.Pop().Value().(*storage.Iterator))
	require.Len(t, records, count)
	for i, rec := range records {
		fields, ok := rec.Value().([]stackitem.Item)
		require.True(t, ok)

		amount, err := fields[1].TryInteger()
		require.NoError(t, err)
		require.EqualValues(t, i+1, amount.Int64(), "journal out of order at position %d", i)
	}
}

// Reproduces the reference flow: A owns the vault, B deposits 10, A pays 4
// to C, B fails to withdraw, A sweeps the rest to C.
func TestVault_Scenario(t *testing.T) {
	e, h, ownerA := newVaultInvoker(t)

	accB := e.NewAccount(t)
	accC := e.NewAccount(t)

	depositGAS(t, e, accB, h, 10)
	require.EqualValues(t, 10, vaultBalance(t, e, h))

	cA := e.NewInvoker(h, ownerA)
	cA.Invoke(t, stackitem.Null{}, "withdraw", accC.ScriptHash(), 4)
	require.EqualValues(t, 6, vaultBalance(t, e, h))

	e.NewInvoker(h, accB).InvokeFail(t, "owner witness check failed", "withdraw", accC.ScriptHash(), 1)
	require.EqualValues(t, 6, vaultBalance(t, e, h))

	cA.Invoke(t, stackitem.Null{}, "withdrawAll", accC.ScriptHash())
	require.EqualValues(t, 0, vaultBalance(t, e, h))
}

func TestVault_UpdateAccess(t *testing.T) {
	e, h, _ := newVaultInvoker(t)

	stranger := e.NewAccount(t)
	e.NewInvoker(h, stranger).InvokeFail(t, "owner witness check failed", "update",
		randomBytes(16), randomBytes(16), nil)
}
