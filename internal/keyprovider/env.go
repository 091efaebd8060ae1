package keyprovider

import (
	"context"
	"os"
	"strings"

	"github.com/mr-tron/base58"

	"wallet-ops/internal/model"
	"wallet-ops/pkg/errno"
	"wallet-ops/pkg/safe_random"
)

// Env 从环境变量读取私钥，支持 Base58 (Phantom 导出格式) 和 JSON 数组两种写法
type Env struct {
	Name string
}

func NewEnv(name string) *Env {
	return &Env{Name: name}
}

func (e *Env) Load(ctx context.Context) (*model.Keypair, error) {
	raw := strings.TrimSpace(os.Getenv(e.Name))
	if raw == "" {
		return nil, errno.Wrapf(errno.ErrInvalidCredential, "环境变量 %s 未设置", e.Name)
	}

	var (
		secret []byte
		err    error
	)
	if strings.HasPrefix(raw, "[") {
		secret, err = DecodeSecretJSON([]byte(raw))
	} else {
		secret, err = base58.Decode(raw)
	}
	if err != nil {
		return nil, errno.Wrapf(errno.ErrInvalidCredential, "环境变量 %s 不是有效的私钥: %v", e.Name, err)
	}
	defer safe_random.Zero(secret)
	return model.KeypairFromSecret(secret)
}
