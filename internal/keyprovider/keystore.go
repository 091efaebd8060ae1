package keyprovider

import (
	"context"
	"errors"
	"fmt"

	"wallet-ops/internal/model"
	"wallet-ops/pkg/errno"
	"wallet-ops/pkg/keystore"
	"wallet-ops/pkg/safe_random"
)

// Keystore 读取 scrypt + AES-256-GCM 加密的私钥文件
type Keystore struct {
	Path     string
	Password PasswordFunc
}

func NewKeystore(path string, password PasswordFunc) *Keystore {
	return &Keystore{Path: path, Password: password}
}

func (k *Keystore) Load(ctx context.Context) (*model.Keypair, error) {
	keyJSON, err := keystore.LoadFromFile(k.Path)
	if err != nil {
		return nil, errno.Wrap(errno.ErrInvalidCredential, err)
	}
	password, err := k.Password()
	if err != nil {
		return nil, errno.Wrap(errno.ErrInvalidCredential, fmt.Errorf("读取密码: %w", err))
	}

	secret, err := keystore.DecryptSecret(keyJSON, password)
	if err != nil {
		if errors.Is(err, keystore.ErrMACMismatch) {
			return nil, errno.Wrapf(errno.ErrInvalidCredential, "keystore %s: 密码错误", k.Path)
		}
		return nil, errno.Wrap(errno.ErrInvalidCredential, err)
	}
	defer safe_random.Zero(secret)

	kp, err := model.KeypairFromSecret(secret)
	if err != nil {
		return nil, err
	}
	if keyJSON.Address != "" && keyJSON.Address != kp.Address().String() {
		kp.Destroy()
		return nil, errno.Wrapf(errno.ErrInvalidCredential, "keystore 地址 %s 与私钥不匹配", keyJSON.Address)
	}
	return kp, nil
}

// SaveKeystore 加密密钥对并写入文件
func SaveKeystore(path string, kp *model.Keypair, password string, params keystore.ScryptParams) error {
	secret := kp.Secret()
	if secret == nil {
		return errno.Wrapf(errno.ErrInvalidCredential, "密钥对已销毁")
	}
	defer safe_random.Zero(secret)

	keyJSON, err := keystore.EncryptSecret(secret, kp.Address().String(), password, params)
	if err != nil {
		return err
	}
	return keyJSON.SaveToFile(path)
}
