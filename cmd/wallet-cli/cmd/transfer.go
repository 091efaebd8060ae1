package cmd

import (
	"github.com/spf13/cobra"

	"wallet-ops/internal/model"
	"wallet-ops/pkg/errno"
)

var transferCmd = &cobra.Command{
	Use:   "transfer RECIPIENT AMOUNT_SOL",
	Short: "从当前密钥对转账",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc := newWalletService()

		dest, err := model.ParseAddress(args[0])
		if err != nil {
			return errno.Wrap(errno.ErrInvalidRequest, err)
		}
		amount, err := model.ParseSOL(args[1])
		if err != nil {
			return errno.Wrap(errno.ErrInvalidRequest, err)
		}

		kp, err := svc.LoadKeypair(ctx)
		if err != nil {
			return err
		}
		defer kp.Destroy()

		res, err := svc.Transfer(ctx, &model.TransferRequest{Source: kp, Destination: dest, Amount: amount})
		if err != nil {
			return err
		}
		return printResult(cmd, res)
	},
}

func init() {
	rootCmd.AddCommand(transferCmd)
}
