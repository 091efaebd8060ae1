package service

import (
	"context"

	"wallet-ops/internal/model"
)

// KeyProvider 加载签名密钥对 (文件、环境变量、Keystore、助记词等，存储方式由实现决定)
type KeyProvider interface {
	Load(ctx context.Context) (*model.Keypair, error)
}

// LedgerRPC 远端账本节点
// 所有方法返回的错误都应是 *errno.Errno，便于调用方判断是否可以重试
type LedgerRPC interface {
	// GetBalance 查询账户余额 (lamports)
	GetBalance(ctx context.Context, address model.Address) (model.Lamports, error)
	// GetLatestBlockhash 获取近期区块哈希及其最后有效区块高度
	GetLatestBlockhash(ctx context.Context) (model.Blockhash, error)
	// EstimateFee 按交易消息询价，消息引用的区块哈希必须仍然有效
	EstimateFee(ctx context.Context, tx *model.Transaction) (model.Lamports, error)
	// SubmitTransaction 提交已签名交易，返回交易签名
	SubmitTransaction(ctx context.Context, tx *model.Transaction) (string, error)
	// RequestAirdrop 向水龙头申请测试币，返回交易签名
	RequestAirdrop(ctx context.Context, address model.Address, amount model.Lamports) (string, error)
	// WaitForConfirmation 阻塞直到交易达到配置的确认级别
	// lastValidBlockHeight 为 0 时不做区块哈希过期检查
	WaitForConfirmation(ctx context.Context, signature string, lastValidBlockHeight uint64) (slot uint64, err error)
}

// TransactionBuilder 构造单指令转账交易
type TransactionBuilder interface {
	// BuildUnsigned 构造未签名交易，只用于估算手续费
	BuildUnsigned(payer, destination model.Address, amount model.Lamports, blockhash model.Blockhash) (*model.Transaction, error)
	// BuildSigned 构造并使用 source 签名交易
	BuildSigned(source *model.Keypair, destination model.Address, amount model.Lamports, blockhash model.Blockhash) (*model.Transaction, error)
}
