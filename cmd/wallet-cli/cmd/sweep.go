package cmd

import (
	"github.com/spf13/cobra"

	"wallet-ops/internal/model"
	"wallet-ops/pkg/errno"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep RECIPIENT",
	Short: "清空当前钱包: 扣除手续费后把全部余额转给 RECIPIENT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc := newWalletService()

		dest, err := model.ParseAddress(args[0])
		if err != nil {
			return errno.Wrap(errno.ErrInvalidRequest, err)
		}

		kp, err := svc.LoadKeypair(ctx)
		if err != nil {
			return err
		}
		defer kp.Destroy()

		res, err := svc.SweepWallet(ctx, kp, dest)
		if err != nil {
			return err
		}
		return printResult(cmd, res)
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
