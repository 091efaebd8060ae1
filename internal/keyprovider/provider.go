// Package keyprovider 从不同来源加载签名密钥对
// 所有加载失败统一包装为 errno.ErrInvalidCredential
package keyprovider

import (
	"context"
	"os"

	"wallet-ops/internal/model"
	"wallet-ops/pkg/config"
	"wallet-ops/pkg/errno"
	"wallet-ops/pkg/safe_random"
)

// Provider 与 service.KeyProvider 方法集相同
type Provider interface {
	Load(ctx context.Context) (*model.Keypair, error)
}

// PasswordFunc 按需获取 Keystore 密码 (例如终端交互输入)
type PasswordFunc func() (string, error)

// Static 返回固定的密钥对，每次 Load 都给出一个独立副本
type Static struct {
	secret []byte
}

func NewStatic(kp *model.Keypair) *Static {
	return &Static{secret: kp.Secret()}
}

func (s *Static) Load(ctx context.Context) (*model.Keypair, error) {
	if len(s.secret) == 0 {
		return nil, errno.Wrapf(errno.ErrInvalidCredential, "密钥对已销毁")
	}
	return model.KeypairFromSecret(s.secret)
}

// Destroy 清零保存的私钥副本，之后 Load 返回 ErrInvalidCredential
func (s *Static) Destroy() {
	safe_random.Zero(s.secret)
	s.secret = nil
}

// FromConfig 按优先级选择密钥来源: 环境变量 > 助记词 > Keystore > 私钥文件
func FromConfig(cfg config.WalletConfig, prompt PasswordFunc) (Provider, error) {
	switch {
	case cfg.SecretEnv != "" && os.Getenv(cfg.SecretEnv) != "":
		return NewEnv(cfg.SecretEnv), nil
	case cfg.Mnemonic != "":
		return NewMnemonic(cfg.Mnemonic, ""), nil
	case cfg.KeystorePath != "":
		password := prompt
		if cfg.Password != "" {
			pw := cfg.Password
			password = func() (string, error) { return pw, nil }
		}
		if password == nil {
			return nil, errno.Wrapf(errno.ErrInvalidCredential, "keystore %s 需要密码", cfg.KeystorePath)
		}
		return NewKeystore(cfg.KeystorePath, password), nil
	case cfg.KeypairPath != "":
		return NewFile(cfg.KeypairPath), nil
	}
	return nil, errno.Wrapf(errno.ErrInvalidCredential, "未配置任何密钥来源")
}
