package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"wallet-ops/pkg/errno"
)

// RPC 方法分类，用于错误映射
const (
	opQuery   = "query"
	opSubmit  = "submit"
	opAirdrop = "airdrop"
)

var (
	staleMarkers = []string{
		"blockhash not found",
		"block height exceeded",
	}
	insufficientMarkers = []string{
		"insufficient funds",
		"insufficient lamports",
		"no record of a prior credit",
	}
	faucetMarkers = []string{
		"429",
		"too many requests",
		"rate limit",
	}
)

// classify 将 solana-go 返回的错误映射为 errno 错误类型
//   - JSON-RPC 错误: 节点可达，按错误信息区分区块哈希过期、余额不足、水龙头拒绝
//   - 其他错误 (连接失败、超时、HTTP 错误): NetworkError
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var already *errno.Errno
	if errors.As(err, &already) {
		return err
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		msg := strings.ToLower(rpcErr.Message)
		if rpcErr.Data != nil {
			msg += " " + strings.ToLower(fmt.Sprint(rpcErr.Data))
		}

		switch {
		case containsAny(msg, staleMarkers):
			return errno.Wrap(errno.ErrStaleBlockhash, err)
		case containsAny(msg, insufficientMarkers):
			return errno.Wrap(errno.ErrInsufficientFunds, err)
		}

		switch op {
		case opAirdrop:
			return errno.Wrap(errno.ErrFaucetRejected, err)
		case opSubmit:
			return errno.Wrap(errno.ErrTransactionFailed, err)
		default:
			return errno.Wrap(errno.ErrNetwork, err)
		}
	}

	// 公共 devnet 节点对水龙头限流时直接返回 HTTP 429
	if op == opAirdrop && containsAny(strings.ToLower(err.Error()), faucetMarkers) {
		return errno.Wrap(errno.ErrFaucetRejected, err)
	}

	return errno.Wrap(errno.ErrNetwork, err)
}

// classifyExecution 映射链上执行失败 (签名状态中的 err 字段)
func classifyExecution(txErr any) error {
	cause := fmt.Errorf("transaction error: %v", txErr)
	msg := strings.ToLower(fmt.Sprint(txErr))
	// System Program 的 Custom(1) 即 ResultWithNegativeLamports
	if strings.Contains(msg, "insufficientfunds") || strings.Contains(msg, "custom:1]") {
		return errno.Wrap(errno.ErrInsufficientFunds, cause)
	}
	if strings.Contains(msg, "blockhashnotfound") {
		return errno.Wrap(errno.ErrStaleBlockhash, cause)
	}
	return errno.Wrap(errno.ErrTransactionFailed, cause)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
