package ledger

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"wallet-ops/internal/model"
	"wallet-ops/pkg/config"
	"wallet-ops/pkg/errno"
	"wallet-ops/pkg/logger"
)

// SolanaClient 基于 solana-go rpc.Client 实现 service.LedgerRPC
type SolanaClient struct {
	rpc            *rpc.Client
	commitment     rpc.CommitmentType
	timeout        time.Duration
	confirmTimeout time.Duration
	pollInterval   time.Duration
	skipPreflight  bool
	log            *zap.Logger
}

// DefaultPollInterval PollInterval 未设置 (<= 0) 时的轮询间隔
const DefaultPollInterval = 2 * time.Second

// NewSolanaClient 根据 RPC 配置创建客户端，不会主动连接节点
func NewSolanaClient(cfg config.RPCConfig) *SolanaClient {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &SolanaClient{
		rpc:            rpc.New(cfg.Endpoint),
		commitment:     rpc.CommitmentType(cfg.Commitment),
		timeout:        cfg.Timeout,
		confirmTimeout: cfg.ConfirmTimeout,
		pollInterval:   cfg.PollInterval,
		skipPreflight:  cfg.SkipPreflight,
		log:            logger.Named("ledger"),
	}
}

// callCtx 为单次 RPC 往返附加超时
func (c *SolanaClient) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *SolanaClient) GetBalance(ctx context.Context, address model.Address) (model.Lamports, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	out, err := c.rpc.GetBalance(ctx, solana.PublicKey(address), c.commitment)
	if err != nil {
		return 0, classify(opQuery, fmt.Errorf("getBalance %s: %w", address, err))
	}
	return model.Lamports(out.Value), nil
}

func (c *SolanaClient) GetLatestBlockhash(ctx context.Context) (model.Blockhash, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	out, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return model.Blockhash{}, classify(opQuery, fmt.Errorf("getLatestBlockhash: %w", err))
	}
	if out == nil || out.Value == nil {
		return model.Blockhash{}, errno.Wrapf(errno.ErrNetwork, "getLatestBlockhash: empty response")
	}
	return model.Blockhash{
		Hash:                 model.Hash(out.Value.Blockhash),
		LastValidBlockHeight: out.Value.LastValidBlockHeight,
	}, nil
}

func (c *SolanaClient) EstimateFee(ctx context.Context, tx *model.Transaction) (model.Lamports, error) {
	if len(tx.Message) == 0 {
		return 0, errno.Wrapf(errno.ErrInvalidRequest, "交易消息为空")
	}

	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	msg := base64.StdEncoding.EncodeToString(tx.Message)
	out, err := c.rpc.GetFeeForMessage(ctx, msg, c.commitment)
	if err != nil {
		return 0, classify(opQuery, fmt.Errorf("getFeeForMessage: %w", err))
	}
	// 节点不认识消息中的区块哈希时返回 null
	if out == nil || out.Value == nil {
		return 0, errno.Wrapf(errno.ErrStaleBlockhash, "getFeeForMessage: blockhash %s unknown to node", tx.Blockhash.Hash)
	}
	return model.Lamports(*out.Value), nil
}

func (c *SolanaClient) SubmitTransaction(ctx context.Context, tx *model.Transaction) (string, error) {
	if !tx.Signed() {
		return "", errno.Wrapf(errno.ErrInvalidRequest, "交易未签名")
	}

	stx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(tx.Raw))
	if err != nil {
		return "", errno.Wrapf(errno.ErrInvalidRequest, "解析已签名交易失败: %v", err)
	}

	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	sig, err := c.rpc.SendTransactionWithOpts(ctx, stx, rpc.TransactionOpts{
		SkipPreflight:       c.skipPreflight,
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return "", classify(opSubmit, fmt.Errorf("sendTransaction: %w", err))
	}
	c.log.Debug("交易已提交", zap.String("signature", sig.String()))
	return sig.String(), nil
}

func (c *SolanaClient) RequestAirdrop(ctx context.Context, address model.Address, amount model.Lamports) (string, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	sig, err := c.rpc.RequestAirdrop(ctx, solana.PublicKey(address), uint64(amount), c.commitment)
	if err != nil {
		return "", classify(opAirdrop, fmt.Errorf("requestAirdrop: %w", err))
	}
	return sig.String(), nil
}

// WaitForConfirmation 轮询签名状态直到达到确认级别
// 区块高度超过 lastValidBlockHeight 仍未上链时返回 StaleBlockhash
func (c *SolanaClient) WaitForConfirmation(ctx context.Context, signature string, lastValidBlockHeight uint64) (uint64, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return 0, errno.Wrapf(errno.ErrInvalidRequest, "无效的交易签名 %q: %v", signature, err)
	}

	if c.confirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.confirmTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.signatureStatus(ctx, sig)
		if err != nil {
			return 0, err
		}
		if status != nil {
			if status.Err != nil {
				return 0, classifyExecution(status.Err)
			}
			if reached(status.ConfirmationStatus, c.commitment) {
				return status.Slot, nil
			}
		} else if lastValidBlockHeight > 0 {
			height, err := c.blockHeight(ctx)
			if err != nil {
				return 0, err
			}
			if height > lastValidBlockHeight {
				return 0, errno.Wrapf(errno.ErrStaleBlockhash,
					"交易 %s 未上链, 区块高度 %d 已超过 %d", signature, height, lastValidBlockHeight)
			}
		}

		select {
		case <-ctx.Done():
			return 0, errno.Wrap(errno.ErrNetwork, fmt.Errorf("等待交易 %s 确认: %w", signature, ctx.Err()))
		case <-ticker.C:
		}
	}
}

func (c *SolanaClient) signatureStatus(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error) {
	callCtx, cancel := c.callCtx(ctx)
	defer cancel()

	out, err := c.rpc.GetSignatureStatuses(callCtx, false, sig)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errno.Wrap(errno.ErrNetwork, fmt.Errorf("等待交易 %s 确认: %w", sig, ctx.Err()))
		}
		return nil, classify(opQuery, fmt.Errorf("getSignatureStatuses: %w", err))
	}
	if out == nil || len(out.Value) == 0 {
		return nil, nil
	}
	return out.Value[0], nil
}

func (c *SolanaClient) blockHeight(ctx context.Context) (uint64, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	h, err := c.rpc.GetBlockHeight(ctx, c.commitment)
	if err != nil {
		return 0, classify(opQuery, fmt.Errorf("getBlockHeight: %w", err))
	}
	return h, nil
}

var commitmentRank = map[string]int{
	string(rpc.CommitmentProcessed): 1,
	string(rpc.CommitmentConfirmed): 2,
	string(rpc.CommitmentFinalized): 3,
}

// reached 判断当前确认状态是否满足要求的确认级别
func reached(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	got, ok := commitmentRank[string(status)]
	if !ok {
		return false
	}
	need, ok := commitmentRank[string(want)]
	if !ok {
		need = commitmentRank[string(rpc.CommitmentConfirmed)]
	}
	return got >= need
}
