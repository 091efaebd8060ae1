package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"wallet-ops/pkg/validator"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	RPC      RPCConfig      `mapstructure:"rpc"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Explorer ExplorerConfig `mapstructure:"explorer"`
}

type AppConfig struct {
	Env string `mapstructure:"env" validate:"required,oneof=development production test"`
}

type RPCConfig struct {
	Endpoint       string        `mapstructure:"endpoint" validate:"required,url"`
	Commitment     string        `mapstructure:"commitment" validate:"required,oneof=processed confirmed finalized"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gt=0"`         // 单次 RPC 往返超时
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout" validate:"gt=0"` // 等待交易确认的总时长
	PollInterval   time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	SkipPreflight  bool          `mapstructure:"skip_preflight"`
}

type WalletConfig struct {
	KeypairPath  string `mapstructure:"keypair_path"`  // Solana CLI 格式的私钥文件 (JSON 数组)
	KeystorePath string `mapstructure:"keystore_path"` // 加密 Keystore 文件路径，优先于 KeypairPath
	Password     string `mapstructure:"password"`      // Keystore 密码 (通常通过环境变量 WALLET_OPS_WALLET_PASSWORD 传入)
	Mnemonic     string `mapstructure:"mnemonic"`
	SecretEnv    string `mapstructure:"secret_env"` // 保存 Base58 私钥的环境变量名
}

type ExplorerConfig struct {
	Cluster string `mapstructure:"cluster"` // devnet / testnet / mainnet-beta
}

const envPrefix = "WALLET_OPS"

var Global Config

// Init 加载配置到 Global (供 CLI 使用)
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	Global = *cfg
	return nil
}

// Load 读取配置: .env -> config.yaml -> 环境变量，path 为空时在 . 和 ./config 中查找
func Load(path string) (*Config, error) {
	// .env 不存在不算错误；此时 logger.Init 还没执行，只能用标准库 log
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: .env not loaded: %v", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // name of config file (without extension)
		v.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// 环境变量设置: rpc.endpoint -> WALLET_OPS_RPC_ENDPOINT
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回只包含默认值的配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate 校验配置字段
func (c *Config) Validate() error {
	if err := validator.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %s", validator.GetErrorMsg(err))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")

	v.SetDefault("rpc.endpoint", "https://api.devnet.solana.com")
	v.SetDefault("rpc.commitment", "confirmed")
	v.SetDefault("rpc.timeout", 30*time.Second)
	v.SetDefault("rpc.confirm_timeout", 90*time.Second)
	v.SetDefault("rpc.poll_interval", 2*time.Second)
	v.SetDefault("rpc.skip_preflight", false)

	v.SetDefault("wallet.keypair_path", "dev-wallet.json")
	v.SetDefault("wallet.keystore_path", "")
	v.SetDefault("wallet.password", "")
	v.SetDefault("wallet.mnemonic", "")
	v.SetDefault("wallet.secret_env", "")

	v.SetDefault("explorer.cluster", "devnet")
}
