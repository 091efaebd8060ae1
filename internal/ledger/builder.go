package ledger

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"wallet-ops/internal/model"
	"wallet-ops/pkg/errno"
)

// TransferBuilder 使用 System Program 的 Transfer 指令构造交易
type TransferBuilder struct{}

func NewTransferBuilder() *TransferBuilder {
	return &TransferBuilder{}
}

func (b *TransferBuilder) BuildUnsigned(payer, destination model.Address, amount model.Lamports, blockhash model.Blockhash) (*model.Transaction, error) {
	tx, err := newTransferTx(payer, destination, amount, blockhash)
	if err != nil {
		return nil, err
	}

	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("序列化交易消息失败: %w", err)
	}

	return &model.Transaction{
		Payer:       payer,
		Destination: destination,
		Amount:      amount,
		Blockhash:   blockhash,
		Message:     msg,
	}, nil
}

func (b *TransferBuilder) BuildSigned(source *model.Keypair, destination model.Address, amount model.Lamports, blockhash model.Blockhash) (*model.Transaction, error) {
	if source.Destroyed() {
		return nil, errno.Wrapf(errno.ErrInvalidRequest, "签名密钥已销毁")
	}
	payer := source.Address()

	tx, err := newTransferTx(payer, destination, amount, blockhash)
	if err != nil {
		return nil, err
	}

	priv := source.PrivateKey()
	payerKey := solana.PublicKey(payer)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payerKey) {
			return &priv
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("签名失败: %w", err)
	}

	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("序列化交易消息失败: %w", err)
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("序列化交易失败: %w", err)
	}

	return &model.Transaction{
		Payer:       payer,
		Destination: destination,
		Amount:      amount,
		Blockhash:   blockhash,
		Message:     msg,
		Raw:         raw,
		Signature:   tx.Signatures[0].String(),
	}, nil
}

func newTransferTx(payer, destination model.Address, amount model.Lamports, blockhash model.Blockhash) (*solana.Transaction, error) {
	if blockhash.Hash.IsZero() {
		return nil, errno.Wrapf(errno.ErrInvalidRequest, "缺少区块哈希")
	}

	from := solana.PublicKey(payer)
	inst := system.NewTransferInstruction(uint64(amount), from, solana.PublicKey(destination)).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{inst},
		solana.Hash(blockhash.Hash),
		solana.TransactionPayer(from),
	)
	if err != nil {
		return nil, fmt.Errorf("构造交易失败: %w", err)
	}
	return tx, nil
}
