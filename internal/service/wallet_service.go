package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"wallet-ops/internal/model"
	"wallet-ops/pkg/errno"
	"wallet-ops/pkg/logger"
	"wallet-ops/pkg/monitor"
)

// 操作名，用作日志字段与监控标签
const (
	OpGenerateKeypair = "generate_keypair"
	OpLoadKeypair     = "load_keypair"
	OpBalance         = "balance"
	OpAirdrop         = "airdrop"
	OpTransfer        = "transfer"
	OpSweep           = "sweep"
)

// DefaultAirdropAmount devnet 水龙头单次默认申请 2 SOL
const DefaultAirdropAmount = 2 * model.LamportsPerSOL

// WalletService 钱包操作: 生成密钥、水龙头、转账、归集
// 除了注入的依赖外没有可变状态，可以并发调用
type WalletService struct {
	ledger  LedgerRPC
	builder TransactionBuilder
	keys    KeyProvider
	metrics *monitor.WalletMetrics
	cluster string
	log     *zap.Logger
}

// NewWalletService keys 与 metrics 可以为 nil
func NewWalletService(ledger LedgerRPC, builder TransactionBuilder, keys KeyProvider, metrics *monitor.WalletMetrics, cluster string) *WalletService {
	return &WalletService{
		ledger:  ledger,
		builder: builder,
		keys:    keys,
		metrics: metrics,
		cluster: cluster,
		log:     logger.Named("wallet"),
	}
}

// GenerateKeypair 生成新的密钥对，不访问网络
func (s *WalletService) GenerateKeypair(ctx context.Context) (kp *model.Keypair, err error) {
	defer s.observe(OpGenerateKeypair, time.Now(), &err)

	kp, err = model.GenerateKeypair()
	if err != nil {
		return nil, errno.Wrap(errno.InternalServerError, err)
	}
	s.log.Info("已生成新密钥对", zap.Stringer("address", kp.Address()))
	return kp, nil
}

// LoadKeypair 通过 KeyProvider 加载密钥对
func (s *WalletService) LoadKeypair(ctx context.Context) (kp *model.Keypair, err error) {
	defer s.observe(OpLoadKeypair, time.Now(), &err)

	if s.keys == nil {
		return nil, errno.Wrapf(errno.ErrInvalidCredential, "未配置密钥来源")
	}
	kp, err = s.keys.Load(ctx)
	if err != nil {
		if !errors.Is(err, errno.ErrInvalidCredential) {
			err = errno.Wrap(errno.ErrInvalidCredential, err)
		}
		return nil, err
	}
	s.log.Debug("已加载密钥对", zap.Stringer("address", kp.Address()))
	return kp, nil
}

// Balance 查询地址余额
func (s *WalletService) Balance(ctx context.Context, address model.Address) (bal model.Lamports, err error) {
	defer s.observe(OpBalance, time.Now(), &err)

	if address.IsZero() {
		return 0, errno.Wrapf(errno.ErrInvalidRequest, "地址为空")
	}
	return s.ledger.GetBalance(ctx, address)
}

// RequestAirdrop 向水龙头申请测试币并等待到账
// 水龙头拒绝 (限流、超过上限、主网) 返回 ErrFaucetRejected
func (s *WalletService) RequestAirdrop(ctx context.Context, address model.Address, amount model.Lamports) (res *model.SubmissionResult, err error) {
	defer s.observe(OpAirdrop, time.Now(), &err)

	if address.IsZero() {
		return nil, errno.Wrapf(errno.ErrInvalidRequest, "地址为空")
	}
	if amount == 0 {
		return nil, errno.Wrapf(errno.ErrInvalidRequest, "空投金额为 0")
	}

	log := s.log.With(zap.String("op", OpAirdrop), zap.Stringer("address", address), zap.Uint64("lamports", uint64(amount)))
	log.Info("申请空投")

	sig, err := s.ledger.RequestAirdrop(ctx, address, amount)
	if err != nil {
		log.Warn("空投请求失败", zap.Error(err))
		return nil, err
	}

	// 空投交易由水龙头构造，拿不到它的 lastValidBlockHeight
	slot, err := s.ledger.WaitForConfirmation(ctx, sig, 0)
	if err != nil {
		log.Warn("空投未确认", zap.String("signature", sig), zap.Error(err))
		return nil, err
	}

	s.metrics.AddTransferred(OpAirdrop, uint64(amount))
	log.Info("空投已到账", zap.String("signature", sig), zap.Uint64("slot", slot))
	return &model.SubmissionResult{
		Operation:   OpAirdrop,
		Signature:   sig,
		Amount:      amount,
		Slot:        slot,
		ExplorerURL: model.ExplorerTxURL(sig, s.cluster),
	}, nil
}

// Transfer 从 req.Source 转出 req.Amount 到 req.Destination
//  1. 金额超过余额时直接返回，不获取区块哈希
//  2. 按签名后的交易询价，金额加手续费超过余额时不提交
func (s *WalletService) Transfer(ctx context.Context, req *model.TransferRequest) (res *model.SubmissionResult, err error) {
	defer s.observe(OpTransfer, time.Now(), &err)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	from := req.Source.Address()
	log := s.log.With(
		zap.String("op", OpTransfer),
		zap.Stringer("from", from),
		zap.Stringer("to", req.Destination),
		zap.Uint64("lamports", uint64(req.Amount)),
	)

	balance, err := s.ledger.GetBalance(ctx, from)
	if err != nil {
		return nil, err
	}
	if req.Amount > balance {
		log.Warn("余额不足", zap.Uint64("balance", uint64(balance)))
		return nil, errno.Wrapf(errno.ErrInsufficientFunds, "余额 %s, 转账 %s", balance, req.Amount)
	}

	blockhash, err := s.ledger.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := s.builder.BuildSigned(req.Source, req.Destination, req.Amount, blockhash)
	if err != nil {
		return nil, err
	}
	fee, err := s.ledger.EstimateFee(ctx, tx)
	if err != nil {
		return nil, err
	}
	// 等价于 amount + fee > balance，避免溢出
	if fee > balance-req.Amount {
		log.Warn("余额不足以支付转账金额与手续费", zap.Uint64("balance", uint64(balance)), zap.Uint64("fee", uint64(fee)))
		return nil, errno.Wrapf(errno.ErrInsufficientFunds, "余额 %s, 转账 %s, 手续费 %s", balance, req.Amount, fee)
	}

	return s.submit(ctx, log, OpTransfer, tx, fee)
}

// SweepWallet 将 source 的全部余额扣除手续费后转到 destination
// 手续费按同一个区块哈希构造的模拟交易 (金额为全部余额) 询价，签名时复用该区块哈希
func (s *WalletService) SweepWallet(ctx context.Context, source *model.Keypair, destination model.Address) (res *model.SubmissionResult, err error) {
	defer s.observe(OpSweep, time.Now(), &err)

	req := model.TransferRequest{Source: source, Destination: destination}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	from := source.Address()
	log := s.log.With(zap.String("op", OpSweep), zap.Stringer("from", from), zap.Stringer("to", destination))

	balance, err := s.ledger.GetBalance(ctx, from)
	if err != nil {
		return nil, err
	}
	blockhash, err := s.ledger.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	mock, err := s.builder.BuildUnsigned(from, destination, balance, blockhash)
	if err != nil {
		return nil, err
	}
	fee, err := s.ledger.EstimateFee(ctx, mock)
	if err != nil {
		return nil, err
	}
	if balance <= fee {
		s.metrics.IncBalanceBelowFee()
		log.Info("余额不足以支付手续费，跳过归集", zap.Uint64("balance", uint64(balance)), zap.Uint64("fee", uint64(fee)))
		return nil, errno.Wrapf(errno.ErrBalanceBelowFee, "余额 %s, 手续费 %s", balance, fee)
	}

	amount := balance - fee
	tx, err := s.builder.BuildSigned(source, destination, amount, blockhash)
	if err != nil {
		return nil, err
	}
	log.Info("开始归集", zap.Uint64("balance", uint64(balance)), zap.Uint64("fee", uint64(fee)), zap.Uint64("lamports", uint64(amount)))

	return s.submit(ctx, log, OpSweep, tx, fee)
}

// submit 提交交易并等待确认
func (s *WalletService) submit(ctx context.Context, log *zap.Logger, op string, tx *model.Transaction, fee model.Lamports) (*model.SubmissionResult, error) {
	sig, err := s.ledger.SubmitTransaction(ctx, tx)
	if err != nil {
		log.Warn("交易提交失败", zap.Error(err))
		return nil, err
	}
	log = log.With(zap.String("signature", sig))

	slot, err := s.ledger.WaitForConfirmation(ctx, sig, tx.Blockhash.LastValidBlockHeight)
	if err != nil {
		log.Warn("交易未确认", zap.Error(err))
		return nil, err
	}

	s.metrics.AddTransferred(op, uint64(tx.Amount))
	log.Info("交易已确认", zap.Uint64("slot", slot))
	return &model.SubmissionResult{
		Operation:   op,
		Signature:   sig,
		Amount:      tx.Amount,
		Fee:         fee,
		Blockhash:   tx.Blockhash.Hash.String(),
		Slot:        slot,
		ExplorerURL: model.ExplorerTxURL(sig, s.cluster),
	}, nil
}

func (s *WalletService) observe(op string, start time.Time, err *error) {
	s.metrics.Observe(op, start, *err)
}
