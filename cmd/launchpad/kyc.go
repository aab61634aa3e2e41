package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"launchpad/internal/config"
	"launchpad/internal/merkle"
)

// kycFile is the published list of KYC'd accounts and their proofs.
type kycFile struct {
	MerkleRoot common.Hash                     `json:"merkleRoot"`
	Records    map[common.Address]merkle.Claim `json:"kycRecords"`
}

func newKYCCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kyc",
		Short: "Build KYC merkle trees and rotate the registry root",
	}

	build := &cobra.Command{
		Use:   "build",
		Short: "Build a KYC tree from a list of accounts",
		RunE:  runKYCBuild,
	}
	build.Flags().StringSlice("account", nil, "KYC'd accounts (comma-separated)")
	build.Flags().String("in", "", "file with one account per line")
	build.Flags().String("out", "./data/kyc.json", "output KYC file")

	setRoot := &cobra.Command{
		Use:   "set-root",
		Short: "Replace the registry KYC root (owner only)",
		RunE:  runKYCSetRoot,
	}
	setRoot.Flags().String("from", "", "caller address")
	setRoot.Flags().String("root", "", "merkle root, defaults to the root in --kyc-file")
	setRoot.Flags().String("kyc-file", "./data/kyc.json", "KYC file")

	cmd.AddCommand(build, setRoot)
	return cmd
}

func runKYCBuild(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	raw, _ := cmd.Flags().GetStringSlice("account")
	if in, _ := cmd.Flags().GetString("in"); in != "" {
		lines, err := readLines(in)
		if err != nil {
			return err
		}
		raw = append(raw, lines...)
	}
	accounts, err := config.ParseAddresses(raw)
	if err != nil {
		return err
	}

	tree, err := merkle.BuildTree(accounts)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if err := writeKYCFile(out, kycFile{MerkleRoot: tree.Root, Records: tree.Claims}); err != nil {
		return err
	}

	logger.Info("kyc tree built",
		zap.Int("accounts", len(accounts)),
		zap.String("root", tree.Root.Hex()),
		zap.String("out", out),
	)
	fmt.Fprintln(cmd.OutOrStdout(), tree.Root.Hex())
	return nil
}

func runKYCSetRoot(cmd *cobra.Command, _ []string) error {
	return run(cmd, func(a *app) error {
		caller, err := flagAddress(cmd, "from")
		if err != nil {
			return err
		}
		var root common.Hash
		if raw, _ := cmd.Flags().GetString("root"); raw != "" {
			if root, err = config.ParseHash(raw); err != nil {
				return err
			}
		} else {
			path, _ := cmd.Flags().GetString("kyc-file")
			file, err := readKYCFile(path)
			if err != nil {
				return err
			}
			root = file.MerkleRoot
		}
		return a.registry.SetKYCMerkleRoot(cmd.Context(), caller, root)
	})
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

func writeKYCFile(path string, file kycFile) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create kyc dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal kyc file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func readKYCFile(path string) (kycFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return kycFile{}, fmt.Errorf("read kyc file: %w", err)
	}
	var file kycFile
	if err := json.Unmarshal(data, &file); err != nil {
		return kycFile{}, fmt.Errorf("parse kyc file: %w", err)
	}
	return file, nil
}
