package token

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance   = errors.New("transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("transfer amount exceeds allowance")
	ErrInvalidAmount         = errors.New("invalid amount")
)

type allowanceKey struct {
	Owner   common.Address
	Spender common.Address
}

type tokenState struct {
	balances    map[common.Address]*big.Int
	allowances  map[allowanceKey]*big.Int
	totalSupply *big.Int
}

func newTokenState() *tokenState {
	return &tokenState{
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[allowanceKey]*big.Int),
		totalSupply: big.NewInt(0),
	}
}

// Ledger is an in-memory multi-token ERC-20 ledger. It backs the CLI state
// file and tests; a chain deployment replaces it with real token contracts.
type Ledger struct {
	mu     sync.Mutex
	tokens map[common.Address]*tokenState
}

func NewLedger() *Ledger {
	return &Ledger{tokens: make(map[common.Address]*tokenState)}
}

func (l *Ledger) state(token common.Address) *tokenState {
	st := l.tokens[token]
	if st == nil {
		st = newTokenState()
		l.tokens[token] = st
	}
	return st
}

// Mint credits amount of token to account.
func (l *Ledger) Mint(token, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.state(token)
	st.balances[to] = add(st.balances[to], amount)
	st.totalSupply.Add(st.totalSupply, amount)
	return nil
}

// Approve sets the spender allowance on owner's balance.
func (l *Ledger) Approve(token, owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state(token).allowances[allowanceKey{Owner: owner, Spender: spender}] = new(big.Int).Set(amount)
	return nil
}

// Allowance returns the remaining allowance.
func (l *Ledger) Allowance(token, owner, spender common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.tokens[token]
	if st == nil {
		return big.NewInt(0)
	}
	return copyOrZero(st.allowances[allowanceKey{Owner: owner, Spender: spender}])
}

// BalanceOf returns the token balance of account.
func (l *Ledger) BalanceOf(_ context.Context, token, account common.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.tokens[token]
	if st == nil {
		return big.NewInt(0), nil
	}
	return copyOrZero(st.balances[account]), nil
}

// TotalSupply returns the minted supply of token.
func (l *Ledger) TotalSupply(token common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.tokens[token]
	if st == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(st.totalSupply)
}

// Transfer moves amount from the calling account to to.
func (l *Ledger) Transfer(_ context.Context, token, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.move(l.state(token), from, to, amount)
}

// TransferFrom moves amount from from to to, spending spender's allowance.
func (l *Ledger) TransferFrom(_ context.Context, token, spender, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.state(token)
	key := allowanceKey{Owner: from, Spender: spender}
	allowance := copyOrZero(st.allowances[key])
	if allowance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s want %s", ErrInsufficientAllowance, allowance, amount)
	}
	if err := l.move(st, from, to, amount); err != nil {
		return err
	}
	st.allowances[key] = allowance.Sub(allowance, amount)
	return nil
}

func (l *Ledger) move(st *tokenState, from, to common.Address, amount *big.Int) error {
	balance := copyOrZero(st.balances[from])
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s want %s", ErrInsufficientBalance, balance, amount)
	}
	st.balances[from] = balance.Sub(balance, amount)
	st.balances[to] = add(st.balances[to], amount)
	return nil
}

func add(current, amount *big.Int) *big.Int {
	if current == nil {
		return new(big.Int).Set(amount)
	}
	return new(big.Int).Add(current, amount)
}

func copyOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
