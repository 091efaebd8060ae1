package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var balanceLamports bool

var balanceCmd = &cobra.Command{
	Use:   "balance [ADDRESS]",
	Short: "查询余额，默认查询当前密钥对",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc := newWalletService()

		var arg string
		if len(args) == 1 {
			arg = args[0]
		}
		addr, err := resolveAddress(ctx, svc, arg)
		if err != nil {
			return err
		}
		bal, err := svc.Balance(ctx, addr)
		if err != nil {
			return err
		}

		if balanceLamports {
			fmt.Fprintf(cmd.OutOrStdout(), "%d lamports\n", uint64(bal))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s SOL\n", bal.SOL())
		return nil
	},
}

func init() {
	balanceCmd.Flags().BoolVar(&balanceLamports, "lamports", false, "以 lamports 显示")
	rootCmd.AddCommand(balanceCmd)
}
