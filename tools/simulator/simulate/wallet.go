package simulate

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Wallet is a simulated transferer that books withdrawn escrow to the
// recipient's balance.
type Wallet struct {
	mu       sync.RWMutex
	balances map[common.Address]*big.Int
}

func NewWallet() *Wallet {
	return &Wallet{
		balances: make(map[common.Address]*big.Int),
	}
}

func (w *Wallet) Transfer(_ context.Context, to common.Address, amount *big.Int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	balance, ok := w.balances[to]
	if !ok {
		balance = new(big.Int)
		w.balances[to] = balance
	}

	balance.Add(balance, amount)

	return nil
}

// Balance returns the total amount transferred to addr.
func (w *Wallet) Balance(addr common.Address) *big.Int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if balance, ok := w.balances[addr]; ok {
		return new(big.Int).Set(balance)
	}

	return new(big.Int)
}
