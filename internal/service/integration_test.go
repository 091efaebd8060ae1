package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-ops/internal/ledger"
	"wallet-ops/internal/ledger/ledgertest"
	"wallet-ops/internal/model"
	"wallet-ops/pkg/config"
	"wallet-ops/pkg/errno"
)

// 使用真实的 SolanaClient 与 TransferBuilder，对接内存中的 JSON-RPC 节点
func newNodeService(t *testing.T) (*WalletService, *ledgertest.Node) {
	t.Helper()
	node := ledgertest.NewNode(t)
	client := ledger.NewSolanaClient(config.RPCConfig{
		Endpoint:       node.URL(),
		Commitment:     "confirmed",
		Timeout:        2 * time.Second,
		ConfirmTimeout: 2 * time.Second,
		PollInterval:   time.Millisecond,
	})
	return NewWalletService(client, ledger.NewTransferBuilder(), nil, nil, "devnet"), node
}

func TestSweepWallet_AgainstNode(t *testing.T) {
	svc, node := newNodeService(t)
	node.Balance = 2_000_000_000
	node.SetFee(5000)
	node.Statuses = []ledgertest.Status{{Missing: true}, {ConfirmationStatus: "confirmed"}}

	kp, err := model.GenerateKeypair()
	require.NoError(t, err)

	res, err := svc.SweepWallet(context.Background(), kp, testDest)
	require.NoError(t, err)
	assert.Equal(t, model.Lamports(1_999_995_000), res.Amount)
	assert.Equal(t, []uint64{1_999_995_000}, node.SubmittedLamports())

	// 询价与签名使用同一个区块哈希
	require.Len(t, node.FeeMessages, 1)
	require.Len(t, node.Submitted, 1)
	assert.Equal(t, node.FeeMessages[0].RecentBlockhash, node.Submitted[0].Message.RecentBlockhash)
	assert.Equal(t, node.Blockhash, node.Submitted[0].Message.RecentBlockhash)
	assert.Equal(t, 1, node.Calls("getLatestBlockhash"))
}

func TestSweepWallet_AgainstNode_BelowFee(t *testing.T) {
	svc, node := newNodeService(t)
	node.Balance = 4000
	node.SetFee(5000)

	kp, err := model.GenerateKeypair()
	require.NoError(t, err)

	_, err = svc.SweepWallet(context.Background(), kp, testDest)
	assert.True(t, errors.Is(err, errno.ErrBalanceBelowFee), "got %v", err)
	assert.Zero(t, node.Calls("sendTransaction"))
}

func TestTransfer_AgainstNode_OverBalance(t *testing.T) {
	svc, node := newNodeService(t)
	node.Balance = 1000

	kp, err := model.GenerateKeypair()
	require.NoError(t, err)

	_, err = svc.Transfer(context.Background(), &model.TransferRequest{Source: kp, Destination: testDest, Amount: 5000})
	assert.True(t, errors.Is(err, errno.ErrInsufficientFunds), "got %v", err)
	assert.Zero(t, node.Calls("getLatestBlockhash"))
	assert.Zero(t, node.Calls("sendTransaction"))
}

func TestRequestAirdrop_AgainstNode(t *testing.T) {
	svc, node := newNodeService(t)

	kp, err := model.GenerateKeypair()
	require.NoError(t, err)

	res, err := svc.RequestAirdrop(context.Background(), kp.Address(), DefaultAirdropAmount)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Signature)
	assert.Equal(t, []uint64{2_000_000_000}, node.Airdrops)

	node.SetError("requestAirdrop", 429, "Too many requests for a specific RPC call")
	_, err = svc.RequestAirdrop(context.Background(), kp.Address(), DefaultAirdropAmount)
	assert.True(t, errors.Is(err, errno.ErrFaucetRejected), "got %v", err)
}
