package gasreject

import "github.com/nspcc-dev/neo-go/pkg/interop"

// OnNEP17Payment rejects any incoming NEP-17 transfer. The contract is used
// in tests as a recipient that cannot receive GAS.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	panic("no payments accepted")
}

func Verify() bool {
	return true
}
