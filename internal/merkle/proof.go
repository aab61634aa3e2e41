package merkle

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Leaf returns keccak256(abi.encodePacked(uint256(index), account)).
func Leaf(index uint64, account common.Address) common.Hash {
	packed := make([]byte, 0, 32+common.AddressLength)
	packed = append(packed, common.LeftPadBytes(new(big.Int).SetUint64(index).Bytes(), 32)...)
	packed = append(packed, account.Bytes()...)
	return crypto.Keccak256Hash(packed)
}

// Verify reports whether (index, account) is included under root using the
// sibling path in proof. Pairs are hashed in sorted order.
func Verify(root common.Hash, index uint64, proof []common.Hash, account common.Address) bool {
	computed := Leaf(index, account)
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a.Bytes(), b.Bytes()) <= 0 {
		return crypto.Keccak256Hash(a.Bytes(), b.Bytes())
	}
	return crypto.Keccak256Hash(b.Bytes(), a.Bytes())
}
