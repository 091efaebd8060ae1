// Package ledgertest 提供一个内存中的 Solana JSON-RPC 节点，用于测试 ledger 与 service
package ledgertest

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Status 一次 getSignatureStatuses 的返回，Missing 表示节点还没有看到这笔交易
type Status struct {
	Missing            bool
	ConfirmationStatus string
	Err                any
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Node 假的 Solana 节点
// 字段在 Lock 保护下修改，测试中一般在发起请求前设置好
type Node struct {
	mu sync.Mutex

	Balance              uint64
	Fee                  *uint64 // nil 表示节点不认识消息中的区块哈希
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
	BlockHeight          uint64
	Statuses             []Status // 依次返回，最后一个重复

	errors map[string]rpcError
	calls  map[string]int

	FeeMessages []solana.Message
	Submitted   []*solana.Transaction
	Airdrops    []uint64

	srv *httptest.Server
}

// NewNode 启动节点，测试结束时自动关闭
func NewNode(t testing.TB) *Node {
	fee := uint64(5000)
	n := &Node{
		Fee:                  &fee,
		Blockhash:            solana.Hash{0xb1, 0x0c, 0x4a, 0x54},
		LastValidBlockHeight: 300,
		BlockHeight:          100,
		Statuses:             []Status{{ConfirmationStatus: "confirmed"}},
		errors:               make(map[string]rpcError),
		calls:                make(map[string]int),
	}
	n.srv = httptest.NewServer(n)
	t.Cleanup(n.srv.Close)
	return n
}

func (n *Node) URL() string {
	return n.srv.URL
}

// Close 提前关闭节点，模拟节点不可达
func (n *Node) Close() {
	n.srv.Close()
}

func (n *Node) Lock()   { n.mu.Lock() }
func (n *Node) Unlock() { n.mu.Unlock() }

// SetFee 设置 getFeeForMessage 的返回值
func (n *Node) SetFee(fee uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Fee = &fee
}

// SetError 让某个 RPC 方法返回 JSON-RPC 错误
func (n *Node) SetError(method string, code int, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors[method] = rpcError{Code: code, Message: message}
}

// Calls 返回某个 RPC 方法被调用的次数
func (n *Node) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

// SubmittedLamports 解析已提交交易中 Transfer 指令的金额
func (n *Node) SubmittedLamports() []uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]uint64, 0, len(n.Submitted))
	for _, tx := range n.Submitted {
		data := tx.Message.Instructions[0].Data
		if len(data) < 12 {
			out = append(out, 0)
			continue
		}
		var v uint64
		for i := 11; i >= 4; i-- {
			v = v<<8 | uint64(data[i])
		}
		out = append(out, v)
	}
	return out
}

type request struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func (n *Node) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls[req.Method]++
	result, rerr := n.handle(req)
	n.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if rerr != nil {
		resp["error"] = rerr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (n *Node) handle(req request) (any, *rpcError) {
	if e, ok := n.errors[req.Method]; ok {
		return nil, &e
	}
	ctx := map[string]any{"slot": n.BlockHeight}

	switch req.Method {
	case "getBalance":
		return map[string]any{"context": ctx, "value": n.Balance}, nil

	case "getLatestBlockhash":
		return map[string]any{"context": ctx, "value": map[string]any{
			"blockhash":            n.Blockhash.String(),
			"lastValidBlockHeight": n.LastValidBlockHeight,
		}}, nil

	case "getFeeForMessage":
		data, err := decodeParam(req)
		if err != nil {
			return nil, &rpcError{Code: -32602, Message: err.Error()}
		}
		var msg solana.Message
		if err := msg.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
			return nil, &rpcError{Code: -32602, Message: err.Error()}
		}
		n.FeeMessages = append(n.FeeMessages, msg)
		if n.Fee == nil {
			return map[string]any{"context": ctx, "value": nil}, nil
		}
		return map[string]any{"context": ctx, "value": *n.Fee}, nil

	case "sendTransaction":
		data, err := decodeParam(req)
		if err != nil {
			return nil, &rpcError{Code: -32602, Message: err.Error()}
		}
		tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(data))
		if err != nil {
			return nil, &rpcError{Code: -32602, Message: err.Error()}
		}
		if err := tx.VerifySignatures(); err != nil {
			return nil, &rpcError{Code: -32003, Message: "Transaction signature verification failure"}
		}
		n.Submitted = append(n.Submitted, tx)
		return tx.Signatures[0].String(), nil

	case "requestAirdrop":
		var lamports uint64
		if len(req.Params) > 1 {
			_ = json.Unmarshal(req.Params[1], &lamports)
		}
		n.Airdrops = append(n.Airdrops, lamports)
		return solana.Signature{0xa1, byte(len(n.Airdrops))}.String(), nil

	case "getSignatureStatuses":
		st := n.Statuses[0]
		if len(n.Statuses) > 1 {
			n.Statuses = n.Statuses[1:]
		}
		if st.Missing {
			return map[string]any{"context": ctx, "value": []any{nil}}, nil
		}
		return map[string]any{"context": ctx, "value": []any{map[string]any{
			"slot":               n.BlockHeight,
			"confirmations":      nil,
			"err":                st.Err,
			"confirmationStatus": st.ConfirmationStatus,
		}}}, nil

	case "getBlockHeight":
		return n.BlockHeight, nil
	}

	return nil, &rpcError{Code: -32601, Message: "Method not found: " + req.Method}
}

// decodeParam 解析第一个 base64 参数 (交易或消息)
func decodeParam(req request) ([]byte, error) {
	var s string
	if len(req.Params) == 0 {
		return nil, errMissingParam
	}
	if err := json.Unmarshal(req.Params[0], &s); err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(s)
}

var errMissingParam = errors.New("missing params")
