package merkle

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Claim is the per-account entry of a KYC tree.
type Claim struct {
	Index uint64        `json:"index"`
	Proof []common.Hash `json:"proof"`
}

// Tree holds a built KYC tree.
type Tree struct {
	Root   common.Hash
	Claims map[common.Address]Claim
}

// BuildTree assigns indexes in input order and computes the root and a proof
// for every account. An odd node at any level is promoted unchanged.
func BuildTree(accounts []common.Address) (*Tree, error) {
	if len(accounts) == 0 {
		return nil, fmt.Errorf("at least one account is required")
	}

	seen := make(map[common.Address]struct{}, len(accounts))
	level := make([]common.Hash, 0, len(accounts))
	for i, account := range accounts {
		if _, ok := seen[account]; ok {
			return nil, fmt.Errorf("duplicate account: %s", account.Hex())
		}
		seen[account] = struct{}{}
		level = append(level, Leaf(uint64(i), account))
	}

	// positions[i] tracks where leaf i currently sits in level.
	positions := make([]int, len(accounts))
	for i := range positions {
		positions[i] = i
	}
	proofs := make([][]common.Hash, len(accounts))

	for len(level) > 1 {
		for i, pos := range positions {
			sibling := pos ^ 1
			if sibling < len(level) {
				proofs[i] = append(proofs[i], level[sibling])
			}
			positions[i] = pos / 2
		}

		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		level = next
	}

	tree := &Tree{
		Root:   level[0],
		Claims: make(map[common.Address]Claim, len(accounts)),
	}
	for i, account := range accounts {
		proof := proofs[i]
		if proof == nil {
			proof = []common.Hash{}
		}
		tree.Claims[account] = Claim{Index: uint64(i), Proof: proof}
	}
	return tree, nil
}
