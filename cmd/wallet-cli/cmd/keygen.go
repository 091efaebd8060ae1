package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"wallet-ops/internal/keyprovider"
	"wallet-ops/internal/model"
	"wallet-ops/pkg/bip39"
	"wallet-ops/pkg/keystore"
)

var (
	keygenOutfile  string
	keygenEncrypt  bool
	keygenMnemonic bool
	keygenWords    int
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "生成新的密钥对",
	Long: `生成新的 ed25519 密钥对并写入私钥文件 (solana-keygen 兼容的 JSON 数组)。
--encrypt 时改为写入 scrypt 加密的 Keystore；--mnemonic 时先生成 BIP-39 助记词再派生密钥。
已存在的文件不会被覆盖。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		var (
			kp       *model.Keypair
			mnemonic string
			err      error
		)
		if keygenMnemonic {
			mnemonic, err = bip39.NewMnemonicService().GenerateMnemonic(keygenWords)
			if err != nil {
				return err
			}
			kp, err = keyprovider.NewMnemonic(mnemonic, "").Load(ctx)
		} else {
			kp, err = newWalletService().GenerateKeypair(ctx)
		}
		if err != nil {
			return err
		}
		defer kp.Destroy()

		outfile := keygenOutfile
		if keygenEncrypt {
			if outfile == "" {
				outfile = cfg.Wallet.KeystorePath
			}
			if outfile == "" {
				outfile = kp.Address().String() + ".keystore"
			}
			password, err := readNewPassword()
			if err != nil {
				return err
			}
			if err := keyprovider.SaveKeystore(outfile, kp, password, keystore.StandardScrypt); err != nil {
				return err
			}
		} else {
			if outfile == "" {
				outfile = cfg.Wallet.KeypairPath
			}
			if err := keyprovider.NewFile(outfile).Save(kp); err != nil {
				return err
			}
		}

		fmt.Fprintf(out, "已写入: %s\n", outfile)
		fmt.Fprintf(out, "地址: %s\n", kp.Address())
		if mnemonic != "" {
			fmt.Fprintln(out, "---------------------------------------------------")
			fmt.Fprintf(out, "助记词 (Mnemonic):\n%s\n", mnemonic)
			fmt.Fprintln(out, "---------------------------------------------------")
			fmt.Fprintln(out, "请妥善保管您的助记词！任何拥有助记词的人都可以控制该钱包的所有资产。")
		}
		return nil
	},
}

// readNewPassword 两次输入确认密码
func readNewPassword() (string, error) {
	fmt.Fprint(os.Stderr, "设置 Keystore 密码: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "再次输入密码: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("两次输入的密码不一致")
	}
	if len(first) == 0 {
		return "", fmt.Errorf("密码不能为空")
	}
	return string(first), nil
}

func init() {
	keygenCmd.Flags().StringVar(&keygenOutfile, "outfile", "", "输出文件 (默认使用 wallet.keypair_path)")
	keygenCmd.Flags().BoolVar(&keygenEncrypt, "encrypt", false, "写入加密 Keystore")
	keygenCmd.Flags().BoolVar(&keygenMnemonic, "mnemonic", false, "由新生成的 BIP-39 助记词派生")
	keygenCmd.Flags().IntVar(&keygenWords, "words", 12, "助记词单词数: 12 | 15 | 18 | 21 | 24")
	rootCmd.AddCommand(keygenCmd)
}
