package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"launchpad/internal/model"
)

const (
	t0       = 1_700_000_000
	owner    = "0x0000000000000000000000000000000000000a11"
	escrow   = "0x000000000000000000000000000000000000e5c0"
	custody  = "0x0000000000000000000000000000000000005a1e"
	stakeTok = "0x5100000000000000000000000000000000000051"
	bonusTok = "0x5200000000000000000000000000000000000052"
	rewardTk = "0x1000000000000000000000000000000000000001"
	fundTok  = "0x2000000000000000000000000000000000000002"
	alice    = "0x3000000000000000000000000000000000000003"
	bob      = "0x4000000000000000000000000000000000000004"
)

type cli struct {
	t    *testing.T
	base []string
	dir  string
}

func newCLI(t *testing.T) *cli {
	dir := t.TempDir()
	return &cli{
		t:   t,
		dir: dir,
		base: []string{
			"--state", filepath.Join(dir, "state.json"),
			"--events", filepath.Join(dir, "events.jsonl"),
			"--log-level", "error",
		},
	}
}

func (c *cli) exec(now uint64, args ...string) (string, error) {
	c.t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	full := append(append([]string{}, args...), c.base...)
	if now > 0 {
		full = append(full, "--now", fmt.Sprint(now))
	}
	root.SetArgs(full)
	err := root.Execute()
	return strings.TrimSpace(out.String()), err
}

func (c *cli) must(now uint64, args ...string) string {
	c.t.Helper()
	out, err := c.exec(now, args...)
	require.NoError(c.t, err, "launchpad %s", strings.Join(args, " "))
	return out
}

func TestCLIFundraisingLifecycle(t *testing.T) {
	c := newCLI(t)
	kycPath := filepath.Join(c.dir, "kyc.json")

	c.must(0, "init", "--owner", owner, "--escrow", escrow,
		"--staking-address", custody, "--staking-token", stakeTok,
		"--rewards-token", bonusTok, "--distributor", owner)
	_, err := c.exec(0, "init", "--owner", owner, "--escrow", escrow)
	require.Error(t, err)

	root := c.must(0, "kyc", "build", "--account", alice+","+bob, "--out", kycPath)
	require.True(t, strings.HasPrefix(root, "0x"))
	c.must(t0, "kyc", "set-root", "--from", owner, "--kyc-file", kycPath)

	c.must(0, "token", "mint", "--token", stakeTok, "--to", alice, "--amount", "300")
	c.must(0, "token", "approve", "--token", stakeTok, "--from", alice, "--spender", custody, "--amount", "300")
	c.must(t0, "stake", "deposit", "--from", alice, "--amount", "300", "--lock-days", "7")

	var score map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(c.must(t0, "stake", "score", "--account", alice)), &score))
	require.EqualValues(t, 300, score["score"])

	poolID := c.must(t0, "pool", "add", "--from", owner,
		"--reward-token", rewardTk, "--fund-token", fundTok,
		"--sub-start", fmt.Sprint(t0), "--sub-end", fmt.Sprint(t0+1000), "--fund-end", fmt.Sprint(t0+2000),
		"--target", "100000", "--price", "0.01", "--min", "500", "--max", "10000")
	require.Equal(t, "0", poolID)

	require.Equal(t, "1250", c.must(t0+10, "subscribe", "--from", alice, "--pool", "0", "--kyc-file", kycPath))

	c.must(0, "token", "mint", "--token", fundTok, "--to", alice, "--amount", "1260")
	c.must(0, "token", "approve", "--token", fundTok, "--from", alice, "--spender", escrow, "--amount", "1260")
	c.must(t0+20, "fund", "--from", alice, "--pool", "0", "--amount", "1250")
	_, err = c.exec(t0+30, "fund", "--from", alice, "--pool", "0", "--amount", "10")
	require.ErrorContains(t, err, "too many tokens provided")

	require.Equal(t, "125000", c.must(t0+2000, "vesting", "required", "--pool", "0"))
	c.must(0, "token", "mint", "--token", rewardTk, "--to", owner, "--amount", "125000")
	c.must(0, "token", "approve", "--token", rewardTk, "--from", owner, "--spender", escrow, "--amount", "125000")
	c.must(t0+2000, "vesting", "setup", "--from", owner, "--pool", "0",
		"--start", fmt.Sprint(t0+3001), "--cliff", fmt.Sprint(t0+4001), "--end", fmt.Sprint(t0+5001))

	_, err = c.exec(t0+3000, "claim", "reward", "--from", alice, "--pool", "0")
	require.ErrorContains(t, err, "not past cliff")
	require.Equal(t, "62500", c.must(t0+4001, "claim", "reward", "--from", alice, "--pool", "0"))
	require.Equal(t, "62500", c.must(t0+6000, "claim", "reward", "--from", alice, "--pool", "0"))
	require.Equal(t, "125000", c.must(0, "token", "balance", "--token", rewardTk, "--account", alice))
	require.Equal(t, "1250", c.must(t0+6000, "claim", "funds", "--from", owner, "--pool", "0"))

	var events []model.EventRecord
	require.NoError(t, json.Unmarshal([]byte(c.must(0, "events")), &events))
	names := make([]string, 0, len(events))
	for i, ev := range events {
		require.Equal(t, uint64(i), ev.Seq)
		names = append(names, ev.Name)
	}
	require.Equal(t, []string{
		"KYCRootUpdated", "PoolCreated", "Subscribed", "Funded",
		"VestingConfigured", "RewardClaimed", "RewardClaimed", "FundRaisingClaimed",
	}, names)
}

func TestCLISubscribeWithNFT(t *testing.T) {
	c := newCLI(t)
	kycPath := filepath.Join(c.dir, "kyc.json")

	c.must(0, "kyc", "build", "--account", bob, "--out", kycPath)
	kyc, err := readKYCFile(kycPath)
	require.NoError(t, err)
	c.must(0, "init", "--owner", owner, "--escrow", escrow, "--kyc-root", kyc.MerkleRoot.Hex())

	c.must(t0, "pool", "add", "--from", owner,
		"--reward-token", rewardTk, "--fund-token", fundTok,
		"--sub-start", fmt.Sprint(t0), "--sub-end", fmt.Sprint(t0+1000), "--fund-end", fmt.Sprint(t0+2000),
		"--target", "100000", "--price", "0.01", "--min", "500", "--max", "10000")

	_, err = c.exec(t0, "subscribe", "--from", bob, "--pool", "0", "--kyc-file", kycPath)
	require.ErrorContains(t, err, "score qualifies for no allocation")

	require.Equal(t, "0", c.must(0, "nft", "mint", "--to", bob, "--allocation", "2000"))
	require.Equal(t, "2000", c.must(t0, "subscribe", "--from", bob, "--pool", "0", "--kyc-file", kycPath, "--nft", "0"))
}

func TestCLIFailedSaveWritesNoEvents(t *testing.T) {
	c := newCLI(t)
	c.must(0, "init", "--owner", owner, "--escrow", escrow)

	addPool := []string{"pool", "add", "--from", owner,
		"--reward-token", rewardTk, "--fund-token", fundTok,
		"--sub-start", fmt.Sprint(t0), "--sub-end", fmt.Sprint(t0+1000), "--fund-end", fmt.Sprint(t0+2000),
		"--target", "100000", "--price", "0.01", "--min", "500", "--max", "10000"}

	// A directory in place of the temporary state file makes the save fail.
	blocker := filepath.Join(c.dir, "state.json.tmp")
	require.NoError(t, os.Mkdir(blocker, 0o755))
	_, err := c.exec(t0, addPool...)
	require.ErrorContains(t, err, "write state tmp")
	require.Equal(t, "null", c.must(0, "events"))

	require.NoError(t, os.Remove(blocker))
	require.Equal(t, "0", c.must(t0, addPool...))

	var events []model.EventRecord
	require.NoError(t, json.Unmarshal([]byte(c.must(0, "events")), &events))
	require.Len(t, events, 1)
	require.Equal(t, uint64(0), events[0].Seq)
	require.Equal(t, "PoolCreated", events[0].Name)
}
