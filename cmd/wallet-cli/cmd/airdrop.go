package cmd

import (
	"github.com/spf13/cobra"

	"wallet-ops/internal/model"
	"wallet-ops/internal/service"
	"wallet-ops/pkg/errno"
)

var airdropTo string

var airdropCmd = &cobra.Command{
	Use:   "airdrop [AMOUNT_SOL]",
	Short: "向 devnet/testnet 水龙头申请测试币 (默认 2 SOL)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc := newWalletService()

		amount := service.DefaultAirdropAmount
		if len(args) == 1 {
			parsed, err := model.ParseSOL(args[0])
			if err != nil {
				return errno.Wrap(errno.ErrInvalidRequest, err)
			}
			amount = parsed
		}

		addr, err := resolveAddress(ctx, svc, airdropTo)
		if err != nil {
			return err
		}
		res, err := svc.RequestAirdrop(ctx, addr, amount)
		if err != nil {
			return err
		}
		return printResult(cmd, res)
	},
}

func init() {
	airdropCmd.Flags().StringVar(&airdropTo, "to", "", "接收地址 (默认当前密钥对)")
	rootCmd.AddCommand(airdropCmd)
}
