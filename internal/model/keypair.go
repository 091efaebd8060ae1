package model

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"wallet-ops/pkg/errno"
	"wallet-ops/pkg/safe_random"
)

// SecretSize Solana 私钥布局: 32 字节种子 || 32 字节公钥
const SecretSize = ed25519.PrivateKeySize

// Keypair 签名密钥对
// 私钥只保存在这一个实例里，Secret() 返回的是副本，Destroy() 会把内存清零
type Keypair struct {
	secret  []byte
	address Address
}

// GenerateKeypair 使用 safe_random.Reader 生成新的密钥对
func GenerateKeypair() (*Keypair, error) {
	seed, err := safe_random.GenerateSeed()
	if err != nil {
		return nil, err
	}
	defer safe_random.Zero(seed)
	return KeypairFromSeed(seed)
}

// KeypairFromSeed 由 32 字节种子确定性地派生密钥对
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errno.Wrapf(errno.ErrInvalidCredential, "种子长度 %d, 期望 %d", len(seed), ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)

	kp := &Keypair{secret: []byte(priv)}
	copy(kp.address[:], priv[ed25519.SeedSize:])
	return kp, nil
}

// KeypairFromSecret 从 64 字节私钥 (或 32 字节种子) 加载密钥对
// 公钥部分总是从种子重新计算，与私钥中携带的公钥不一致时视为凭证损坏
func KeypairFromSecret(secret []byte) (*Keypair, error) {
	switch len(secret) {
	case ed25519.SeedSize:
		return KeypairFromSeed(secret)
	case SecretSize:
	default:
		return nil, errno.Wrapf(errno.ErrInvalidCredential, "私钥长度 %d, 期望 %d", len(secret), SecretSize)
	}

	kp, err := KeypairFromSeed(secret[:ed25519.SeedSize])
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(kp.address[:], secret[ed25519.SeedSize:]) {
		kp.Destroy()
		return nil, errno.Wrapf(errno.ErrInvalidCredential, "私钥中的公钥与种子不匹配")
	}
	return kp, nil
}

// Address 返回公钥地址
func (k *Keypair) Address() Address {
	return k.address
}

// Secret 返回私钥副本，调用方负责安全保存并在使用后清零
func (k *Keypair) Secret() []byte {
	if k.Destroyed() {
		return nil
	}
	out := make([]byte, len(k.secret))
	copy(out, k.secret)
	return out
}

// PrivateKey 以 solana-go 的类型暴露私钥，与 Keypair 共享底层内存 (不复制)
func (k *Keypair) PrivateKey() solana.PrivateKey {
	if k.Destroyed() {
		return nil
	}
	return solana.PrivateKey(k.secret)
}

// Destroy 清零私钥，之后该密钥对不能再用于签名
func (k *Keypair) Destroy() {
	if k == nil || k.secret == nil {
		return
	}
	safe_random.Zero(k.secret)
	k.secret = nil
}

func (k *Keypair) Destroyed() bool {
	return k == nil || k.secret == nil
}

// String 只输出地址，防止私钥出现在日志中
func (k *Keypair) String() string {
	return fmt.Sprintf("Keypair(%s)", k.address)
}
