package token

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Balance is one non-zero holding in a ledger snapshot.
type Balance struct {
	Token   common.Address `json:"token"`
	Account common.Address `json:"account"`
	Amount  *big.Int       `json:"amount"`
}

// Allowance is one non-zero approval in a ledger snapshot.
type Allowance struct {
	Token   common.Address `json:"token"`
	Owner   common.Address `json:"owner"`
	Spender common.Address `json:"spender"`
	Amount  *big.Int       `json:"amount"`
}

// LedgerSnapshot is the serializable form of a Ledger.
type LedgerSnapshot struct {
	Balances   []Balance   `json:"balances"`
	Allowances []Allowance `json:"allowances"`
}

// Snapshot captures all non-zero balances and allowances in a stable order.
func (l *Ledger) Snapshot() LedgerSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := LedgerSnapshot{Balances: []Balance{}, Allowances: []Allowance{}}
	for token, st := range l.tokens {
		for account, amount := range st.balances {
			if amount.Sign() == 0 {
				continue
			}
			snap.Balances = append(snap.Balances, Balance{Token: token, Account: account, Amount: new(big.Int).Set(amount)})
		}
		for key, amount := range st.allowances {
			if amount.Sign() == 0 {
				continue
			}
			snap.Allowances = append(snap.Allowances, Allowance{Token: token, Owner: key.Owner, Spender: key.Spender, Amount: new(big.Int).Set(amount)})
		}
	}

	sort.Slice(snap.Balances, func(i, j int) bool {
		a, b := snap.Balances[i], snap.Balances[j]
		if a.Token != b.Token {
			return a.Token.Hex() < b.Token.Hex()
		}
		return a.Account.Hex() < b.Account.Hex()
	})
	sort.Slice(snap.Allowances, func(i, j int) bool {
		a, b := snap.Allowances[i], snap.Allowances[j]
		if a.Token != b.Token {
			return a.Token.Hex() < b.Token.Hex()
		}
		if a.Owner != b.Owner {
			return a.Owner.Hex() < b.Owner.Hex()
		}
		return a.Spender.Hex() < b.Spender.Hex()
	})
	return snap
}

// RestoreLedger rebuilds a Ledger from a snapshot. Supply is recomputed from
// balances.
func RestoreLedger(snap LedgerSnapshot) *Ledger {
	l := NewLedger()
	for _, b := range snap.Balances {
		if b.Amount == nil {
			continue
		}
		st := l.state(b.Token)
		st.balances[b.Account] = new(big.Int).Set(b.Amount)
		st.totalSupply.Add(st.totalSupply, b.Amount)
	}
	for _, a := range snap.Allowances {
		if a.Amount == nil {
			continue
		}
		l.state(a.Token).allowances[allowanceKey{Owner: a.Owner, Spender: a.Spender}] = new(big.Int).Set(a.Amount)
	}
	return l
}
