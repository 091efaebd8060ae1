package bip39

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

var (
	ErrInvalidMnemonic = errors.New("无效的助记词")
	ErrWordCount       = errors.New("助记词单词数必须是 12、15、18、21 或 24")
)

// Ed25519SeedSize solana-keygen 只取 BIP-39 种子的前 32 字节
const Ed25519SeedSize = 32

// MnemonicService 助记词的生成、校验与种子派生
type MnemonicService struct{}

func NewMnemonicService() *MnemonicService {
	return &MnemonicService{}
}

// GenerateMnemonic 按单词数生成随机助记词，熵位数 = words * 32 / 3
func (s *MnemonicService) GenerateMnemonic(words int) (string, error) {
	if words < 12 || words > 24 || words%3 != 0 {
		return "", ErrWordCount
	}
	entropy, err := bip39.NewEntropy(words * 32 / 3)
	if err != nil {
		return "", fmt.Errorf("生成熵失败: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("生成助记词失败: %w", err)
	}
	return mnemonic, nil
}

// Normalize 折叠多余空白并转为小写，用户粘贴的助记词经常带换行
func Normalize(mnemonic string) string {
	return strings.ToLower(strings.Join(strings.Fields(mnemonic), " "))
}

func (s *MnemonicService) ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(Normalize(mnemonic))
}

// MnemonicToSeed 返回 64 字节 BIP-39 种子，passphrase 可以为空
func (s *MnemonicService) MnemonicToSeed(mnemonic, passphrase string) []byte {
	return bip39.NewSeed(Normalize(mnemonic), passphrase)
}

// MnemonicToEd25519Seed 不使用派生路径，直接截取种子前 32 字节
func (s *MnemonicService) MnemonicToEd25519Seed(mnemonic, passphrase string) ([]byte, error) {
	if !s.ValidateMnemonic(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed := s.MnemonicToSeed(mnemonic, passphrase)
	out := make([]byte, Ed25519SeedSize)
	copy(out, seed)
	for i := range seed {
		seed[i] = 0
	}
	return out, nil
}
