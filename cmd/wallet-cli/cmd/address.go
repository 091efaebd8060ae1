package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "显示当前密钥对的地址",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kp, err := newWalletService().LoadKeypair(cmd.Context())
		if err != nil {
			return err
		}
		defer kp.Destroy()
		fmt.Fprintln(cmd.OutOrStdout(), kp.Address())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addressCmd)
}
