package merkle

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func testAccounts(n int) []common.Address {
	out := make([]common.Address, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, common.HexToAddress(fmt.Sprintf("0x%040x", i*7919)))
	}
	return out
}

func TestBuildTreeProofsVerify(t *testing.T) {
	for _, size := range []int{1, 2, 3, 5, 8, 13} {
		accounts := testAccounts(size)
		tree, err := BuildTree(accounts)
		if err != nil {
			t.Fatalf("size %d: build: %v", size, err)
		}
		for _, account := range accounts {
			claim := tree.Claims[account]
			if !Verify(tree.Root, claim.Index, claim.Proof, account) {
				t.Fatalf("size %d: proof for %s rejected", size, account.Hex())
			}
		}
	}
}

func TestVerifyRejectsWrongInputs(t *testing.T) {
	accounts := testAccounts(4)
	tree, err := BuildTree(accounts)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	claim := tree.Claims[accounts[1]]
	outsider := common.HexToAddress("0x9999999999999999999999999999999999999999")

	if Verify(tree.Root, claim.Index, claim.Proof, outsider) {
		t.Fatalf("outsider accepted with a borrowed proof")
	}
	if Verify(tree.Root, claim.Index+1, claim.Proof, accounts[1]) {
		t.Fatalf("wrong index accepted")
	}
	if Verify(tree.Root, 0, nil, outsider) {
		t.Fatalf("empty proof accepted")
	}
	if Verify(common.Hash{}, claim.Index, claim.Proof, accounts[1]) {
		t.Fatalf("zero root accepted")
	}
}

func TestSingleLeafRoot(t *testing.T) {
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")
	tree, err := BuildTree([]common.Address{account})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if tree.Root != Leaf(0, account) {
		t.Fatalf("single leaf root mismatch")
	}
	if len(tree.Claims[account].Proof) != 0 {
		t.Fatalf("expected empty proof")
	}
}

func TestBuildTreeRejectsDuplicates(t *testing.T) {
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")
	if _, err := BuildTree([]common.Address{account, account}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, err := BuildTree(nil); err == nil {
		t.Fatalf("expected empty error")
	}
}
