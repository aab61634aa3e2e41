package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"launchpad/internal/config"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the simulated ERC-20 balances",
	}

	mint := &cobra.Command{
		Use:   "mint",
		Short: "Mint tokens to an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(a *app) error {
				tok, err := flagAddress(cmd, "token")
				if err != nil {
					return err
				}
				to, err := flagAddress(cmd, "to")
				if err != nil {
					return err
				}
				amount, err := flagAmount(cmd, "amount")
				if err != nil {
					return err
				}
				return a.tokens.Mint(tok, to, amount)
			})
		},
	}
	mint.Flags().String("token", "", "token address")
	mint.Flags().String("to", "", "recipient")
	mint.Flags().String("amount", "", "amount")

	approve := &cobra.Command{
		Use:   "approve",
		Short: "Approve a spender, usually the escrow or staking custody",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(a *app) error {
				tok, err := flagAddress(cmd, "token")
				if err != nil {
					return err
				}
				owner, err := flagAddress(cmd, "from")
				if err != nil {
					return err
				}
				spender, err := flagAddress(cmd, "spender")
				if err != nil {
					return err
				}
				amount, err := flagAmount(cmd, "amount")
				if err != nil {
					return err
				}
				return a.tokens.Approve(tok, owner, spender, amount)
			})
		},
	}
	approve.Flags().String("token", "", "token address")
	approve.Flags().String("from", "", "token owner")
	approve.Flags().String("spender", "", "spender")
	approve.Flags().String("amount", "", "allowance")

	balance := &cobra.Command{
		Use:   "balance",
		Short: "Print a token balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return view(cmd, func(a *app) error {
				tok, err := flagAddress(cmd, "token")
				if err != nil {
					return err
				}
				account, err := flagAddress(cmd, "account")
				if err != nil {
					return err
				}
				bal, err := a.tokens.BalanceOf(cmd.Context(), tok, account)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), config.FormatAmount(bal))
				return nil
			})
		},
	}
	balance.Flags().String("token", "", "token address")
	balance.Flags().String("account", "", "holder")

	cmd.AddCommand(mint, approve, balance)
	return cmd
}
