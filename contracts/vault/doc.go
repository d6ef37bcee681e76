/*
Package vault implements Vault contract.

Vault is a single-owner GAS holding contract. Anyone can deposit GAS into
the vault by transferring it to the contract address, but only the vault
owner can withdraw it (partially or in full) or hand the vault over to a
new owner. The owner is set at deployment time, either explicitly via
deployment parameters or defaulting to the deploying transaction sender.

The vault does not keep its own balance sheet. Its balance is the native
GAS balance of the contract account, so GAS arriving outside the regular
deposit flow is not lost, it simply raises the balance and is covered by
the next withdrawal.

Every mutating method is all-or-nothing: authorization and balance
sufficiency are verified before a transfer is attempted, the transfer
result is checked, and any failure aborts the invocation with all storage
changes and notifications rolled back by the VM.

# Contract notifications

Deposited notification. Produced when GAS arrives at the vault.

	Deposited:
	  - name: from
	    type: Hash160
	  - name: amount
	    type: Integer

Withdrawn notification. Produced on every successful withdrawal, both for
withdraw and withdrawAll.

	Withdrawn:
	  - name: to
	    type: Hash160
	  - name: amount
	    type: Integer

OwnerChanged notification. Produced when the vault is handed over to a new
owner.

	OwnerChanged:
	  - name: oldOwner
	    type: Hash160
	  - name: newOwner
	    type: Hash160
*/
package vault

/*
Contract storage model.

# Summary
Key-value storage format:
 - 'o' -> interop.Hash160
   script hash of the current vault owner
 - 'n' -> int
   number of withdrawals performed so far
 - 'w' + <8-byte big-endian sequence number> -> std.Serialize(WithdrawalRecord)
   journal of performed withdrawals (here WithdrawalRecord is a structure
   defined in current package)

# Ownership
Single owner account gates all withdrawals and ownership transfers. The
owner key is written at deployment and rewritten by transferOwnership only.

# Journal
Withdrawal journal is append-only, records are never modified or deleted.
*/
