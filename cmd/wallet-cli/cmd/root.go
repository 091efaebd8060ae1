package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"wallet-ops/internal/keyprovider"
	"wallet-ops/internal/ledger"
	"wallet-ops/internal/model"
	"wallet-ops/internal/service"
	"wallet-ops/pkg/config"
	"wallet-ops/pkg/errno"
	"wallet-ops/pkg/logger"
	"wallet-ops/pkg/monitor"
)

var (
	cfgFile      string
	keypairPath  string
	keystorePath string
	endpoint     string
	outputFormat string
	metricsOut   string

	cfg      *config.Config
	registry *prometheus.Registry
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "wallet-cli",
	Short: "Solana 钱包命令行工具",
	Long: `生成密钥、申请 devnet 空投、转账以及清空钱包 (归集)。
节点地址、确认级别与密钥来源通过 config.yaml、.env 或 WALLET_OPS_* 环境变量配置。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(cfgFile); err != nil {
			return err
		}
		cfg = &config.Global
		if keypairPath != "" {
			cfg.Wallet.KeypairPath = keypairPath
		}
		if keystorePath != "" {
			cfg.Wallet.KeystorePath = keystorePath
		}
		if endpoint != "" {
			cfg.RPC.Endpoint = endpoint
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		return logger.Init(cfg.App.Env)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		logger.Sync()
		if metricsOut == "" || registry == nil {
			return nil
		}
		// 供 node_exporter textfile collector 采集
		return prometheus.WriteToTextfile(metricsOut, registry)
	},
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		code, msg := errno.Decode(err)
		fmt.Fprintf(os.Stderr, "错误 [%d]: %s\n", code, msg)
		if errno.IsRetryable(err) {
			fmt.Fprintln(os.Stderr, "该错误可以重试")
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认在 . 与 ./config 中查找 config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&keypairPath, "keypair", "k", "", "Solana CLI 格式的私钥文件")
	rootCmd.PersistentFlags().StringVar(&keystorePath, "keystore", "", "加密 Keystore 文件")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "url", "u", "", "RPC 节点地址，覆盖 rpc.endpoint")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "输出格式: text | json")
	rootCmd.PersistentFlags().StringVar(&metricsOut, "metrics-out", "", "将 Prometheus 指标写入该文件")
}

// newWalletService 根据当前配置组装 WalletService
// 密钥来源配置错误时延迟到真正需要密钥时才报错，balance <ADDRESS> 不需要密钥
func newWalletService() *service.WalletService {
	var keys service.KeyProvider
	keys, err := keyprovider.FromConfig(cfg.Wallet, promptPassword)
	if err != nil {
		keys = unavailableKeys{err: err}
	}
	registry = prometheus.NewRegistry()
	metrics := monitor.NewWalletMetrics(registry)

	client := ledger.NewSolanaClient(cfg.RPC)
	return service.NewWalletService(client, ledger.NewTransferBuilder(), keys, metrics, cfg.Explorer.Cluster)
}

type unavailableKeys struct{ err error }

func (u unavailableKeys) Load(context.Context) (*model.Keypair, error) { return nil, u.err }

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "请输入 Keystore 密码: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// resolveAddress 参数为空时使用配置的密钥对地址
func resolveAddress(ctx context.Context, svc *service.WalletService, arg string) (model.Address, error) {
	if arg != "" {
		addr, err := model.ParseAddress(arg)
		if err != nil {
			return model.Address{}, errno.Wrap(errno.ErrInvalidRequest, err)
		}
		return addr, nil
	}
	kp, err := svc.LoadKeypair(ctx)
	if err != nil {
		return model.Address{}, err
	}
	defer kp.Destroy()
	return kp.Address(), nil
}

func printResult(cmd *cobra.Command, res *model.SubmissionResult) error {
	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(out, "Signature: %s\n", res.Signature)
	fmt.Fprintf(out, "Amount:    %s SOL\n", res.Amount.SOL())
	if res.Fee > 0 {
		fmt.Fprintf(out, "Fee:       %s SOL\n", res.Fee.SOL())
	}
	if res.Slot > 0 {
		fmt.Fprintf(out, "Slot:      %d\n", res.Slot)
	}
	fmt.Fprintf(out, "Explorer:  %s\n", res.ExplorerURL)
	return nil
}
