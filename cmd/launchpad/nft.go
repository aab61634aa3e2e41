package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newNFTCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nft",
		Short: "Manage utility NFTs carrying guaranteed allocation",
	}

	mint := &cobra.Command{
		Use:   "mint",
		Short: "Mint a utility NFT",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(a *app) error {
				to, err := flagAddress(cmd, "to")
				if err != nil {
					return err
				}
				guaranteed, err := flagAmount(cmd, "allocation")
				if err != nil {
					return err
				}
				id, err := a.nft.Mint(to, guaranteed)
				if err != nil {
					return err
				}
				a.logger.Info("nft minted", zap.Uint64("nft_id", id), zap.String("owner", to.Hex()))
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	mint.Flags().String("to", "", "owner")
	mint.Flags().String("allocation", "", "guaranteed allocation")

	list := &cobra.Command{
		Use:   "list",
		Short: "Print every NFT",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return view(cmd, func(a *app) error {
				return printJSON(cmd.OutOrStdout(), a.nft.Records())
			})
		},
	}

	cmd.AddCommand(mint, list)
	return cmd
}
