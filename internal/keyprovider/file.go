package keyprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"wallet-ops/internal/model"
	"wallet-ops/pkg/errno"
	"wallet-ops/pkg/safe_random"
)

// File 读取 solana-keygen 生成的私钥文件: 64 个字节组成的 JSON 数组
type File struct {
	Path string
}

func NewFile(path string) *File {
	return &File{Path: path}
}

func (f *File) Load(ctx context.Context) (*model.Keypair, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errno.Wrap(errno.ErrInvalidCredential, fmt.Errorf("读取私钥文件: %w", err))
	}
	secret, err := DecodeSecretJSON(data)
	if err != nil {
		return nil, errno.Wrap(errno.ErrInvalidCredential, fmt.Errorf("%s: %w", f.Path, err))
	}
	defer safe_random.Zero(secret)
	return model.KeypairFromSecret(secret)
}

// Save 以 0600 权限写入私钥文件，已存在的文件不会被覆盖
func (f *File) Save(kp *model.Keypair) error {
	secret := kp.Secret()
	if secret == nil {
		return errno.Wrapf(errno.ErrInvalidCredential, "密钥对已销毁")
	}
	defer safe_random.Zero(secret)

	data, err := EncodeSecretJSON(secret)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	fh, err := os.OpenFile(f.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("创建私钥文件: %w", err)
	}
	if _, err := fh.Write(data); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

// EncodeSecretJSON 编码为 [12,34,...] 形式，[]byte 默认会被 encoding/json 编成 base64
func EncodeSecretJSON(secret []byte) ([]byte, error) {
	ints := make([]int, len(secret))
	for i, b := range secret {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}

// DecodeSecretJSON 解析 [12,34,...] 形式的私钥
func DecodeSecretJSON(data []byte) ([]byte, error) {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("私钥文件格式错误: %w", err)
	}
	secret := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("私钥第 %d 个元素 %d 超出字节范围", i, v)
		}
		secret[i] = byte(v)
	}
	return secret, nil
}
