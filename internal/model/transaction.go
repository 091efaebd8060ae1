package model

import (
	"fmt"

	"wallet-ops/pkg/errno"
)

// TransferRequest 一次转账请求
type TransferRequest struct {
	Source      *Keypair
	Destination Address
	Amount      Lamports
}

// Validate 检查请求本身是否合法 (不涉及链上余额)
func (r *TransferRequest) Validate() error {
	if r.Source.Destroyed() {
		return errno.Wrapf(errno.ErrInvalidRequest, "源密钥对为空或已销毁")
	}
	if r.Destination.IsZero() {
		return errno.Wrapf(errno.ErrInvalidRequest, "目标地址为空")
	}
	return nil
}

// Transaction 单指令转账交易
// 由 TransactionBuilder 构造，构造完成后不再修改。
// 未签名的交易 (Raw 为空) 只用于估算手续费，不能提交。
type Transaction struct {
	Payer       Address
	Destination Address
	Amount      Lamports
	Blockhash   Blockhash

	// Message 序列化后的交易消息 (签名的对象，也是估算手续费的输入)
	Message []byte
	// Raw 已签名的链上格式交易，未签名时为 nil
	Raw []byte
	// Signature 第一个签名 (付款人签名) 的 Base58 编码，即交易 ID
	Signature string
}

func (t *Transaction) Signed() bool {
	return len(t.Raw) > 0
}

// SubmissionResult 一次提交成功后的结果
// 失败时通过 *errno.Errno 返回，不使用这个结构
type SubmissionResult struct {
	Operation   string   `json:"operation"`
	Signature   string   `json:"signature"`
	Amount      Lamports `json:"amount"`
	Fee         Lamports `json:"fee"`
	Blockhash   string   `json:"blockhash,omitempty"`
	Slot        uint64   `json:"slot,omitempty"`
	ExplorerURL string   `json:"explorer_url,omitempty"`
}

// ExplorerTxURL 返回 Solana Explorer 上的交易链接
// cluster 为空或为 mainnet-beta 时不带 cluster 参数
func ExplorerTxURL(signature, cluster string) string {
	if cluster == "" || cluster == "mainnet-beta" {
		return fmt.Sprintf("https://explorer.solana.com/tx/%s", signature)
	}
	return fmt.Sprintf("https://explorer.solana.com/tx/%s?cluster=%s", signature, cluster)
}
