package keyprovider

import (
	"context"

	"wallet-ops/internal/model"
	"wallet-ops/pkg/bip39"
	"wallet-ops/pkg/errno"
	"wallet-ops/pkg/safe_random"
)

// Mnemonic 从 BIP-39 助记词恢复密钥对 (不使用派生路径)
type Mnemonic struct {
	mnemonic   string
	passphrase string
	svc        *bip39.MnemonicService
}

func NewMnemonic(mnemonic, passphrase string) *Mnemonic {
	return &Mnemonic{
		mnemonic:   mnemonic,
		passphrase: passphrase,
		svc:        bip39.NewMnemonicService(),
	}
}

func (m *Mnemonic) Load(ctx context.Context) (*model.Keypair, error) {
	seed, err := m.svc.MnemonicToEd25519Seed(m.mnemonic, m.passphrase)
	if err != nil {
		return nil, errno.Wrap(errno.ErrInvalidCredential, err)
	}
	defer safe_random.Zero(seed)
	return model.KeypairFromSeed(seed)
}
