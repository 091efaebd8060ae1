package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wallet-ops/internal/ledger"
	"wallet-ops/internal/model"
	"wallet-ops/pkg/errno"
	"wallet-ops/pkg/monitor"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) GetBalance(ctx context.Context, address model.Address) (model.Lamports, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(model.Lamports), args.Error(1)
}

func (m *mockLedger) GetLatestBlockhash(ctx context.Context) (model.Blockhash, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Blockhash), args.Error(1)
}

func (m *mockLedger) EstimateFee(ctx context.Context, tx *model.Transaction) (model.Lamports, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(model.Lamports), args.Error(1)
}

func (m *mockLedger) SubmitTransaction(ctx context.Context, tx *model.Transaction) (string, error) {
	args := m.Called(ctx, tx)
	return args.String(0), args.Error(1)
}

func (m *mockLedger) RequestAirdrop(ctx context.Context, address model.Address, amount model.Lamports) (string, error) {
	args := m.Called(ctx, address, amount)
	return args.String(0), args.Error(1)
}

func (m *mockLedger) WaitForConfirmation(ctx context.Context, signature string, lastValidBlockHeight uint64) (uint64, error) {
	args := m.Called(ctx, signature, lastValidBlockHeight)
	return args.Get(0).(uint64), args.Error(1)
}

type providerFunc func(ctx context.Context) (*model.Keypair, error)

func (f providerFunc) Load(ctx context.Context) (*model.Keypair, error) { return f(ctx) }

var (
	testDest      = model.MustParseAddress("FqaiW9B3EPtwXjqZbWjoESf3SfooJgRWtgodmn3Dg7Mv")
	testBlockhash = model.Blockhash{Hash: model.Hash{0xbe, 0xef}, LastValidBlockHeight: 500}
)

const testSig = "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"

func newTestService(t *testing.T) (*WalletService, *mockLedger, *model.Keypair, *monitor.WalletMetrics) {
	t.Helper()
	kp, err := model.GenerateKeypair()
	require.NoError(t, err)

	l := new(mockLedger)
	metrics := monitor.NewWalletMetrics(prometheus.NewRegistry())
	svc := NewWalletService(l, ledger.NewTransferBuilder(), providerFunc(func(context.Context) (*model.Keypair, error) {
		return model.KeypairFromSecret(kp.Secret())
	}), metrics, "devnet")
	return svc, l, kp, metrics
}

func unsignedWith(amount model.Lamports) any {
	return mock.MatchedBy(func(tx *model.Transaction) bool {
		return !tx.Signed() && tx.Amount == amount && tx.Blockhash == testBlockhash
	})
}

func signedWith(amount model.Lamports) any {
	return mock.MatchedBy(func(tx *model.Transaction) bool {
		return tx.Signed() && tx.Amount == amount && tx.Blockhash == testBlockhash
	})
}

func TestSweepWallet_SubmitsBalanceMinusFee(t *testing.T) {
	svc, l, kp, metrics := newTestService(t)

	l.On("GetBalance", mock.Anything, kp.Address()).Return(model.Lamports(2_000_000_000), nil)
	l.On("GetLatestBlockhash", mock.Anything).Return(testBlockhash, nil).Once()
	l.On("EstimateFee", mock.Anything, unsignedWith(2_000_000_000)).Return(model.Lamports(5000), nil)
	l.On("SubmitTransaction", mock.Anything, signedWith(1_999_995_000)).Return(testSig, nil)
	l.On("WaitForConfirmation", mock.Anything, testSig, uint64(500)).Return(uint64(4242), nil)

	res, err := svc.SweepWallet(context.Background(), kp, testDest)
	require.NoError(t, err)
	l.AssertExpectations(t)

	assert.Equal(t, OpSweep, res.Operation)
	assert.Equal(t, testSig, res.Signature)
	assert.Equal(t, model.Lamports(1_999_995_000), res.Amount)
	assert.Equal(t, model.Lamports(5000), res.Fee)
	assert.Equal(t, uint64(4242), res.Slot)
	assert.Equal(t, testBlockhash.Hash.String(), res.Blockhash)
	assert.Equal(t, "https://explorer.solana.com/tx/"+testSig+"?cluster=devnet", res.ExplorerURL)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.OperationsTotal.WithLabelValues(OpSweep, monitor.ResultSuccess)))
	assert.Equal(t, 1_999_995_000.0, testutil.ToFloat64(metrics.TransferredLamports.WithLabelValues(OpSweep)))
}

func TestSweepWallet_BalanceBelowFee(t *testing.T) {
	for _, balance := range []model.Lamports{4000, 5000, 0} {
		t.Run(balance.SOL(), func(t *testing.T) {
			svc, l, kp, metrics := newTestService(t)

			l.On("GetBalance", mock.Anything, kp.Address()).Return(balance, nil)
			l.On("GetLatestBlockhash", mock.Anything).Return(testBlockhash, nil)
			l.On("EstimateFee", mock.Anything, unsignedWith(balance)).Return(model.Lamports(5000), nil)

			res, err := svc.SweepWallet(context.Background(), kp, testDest)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, errno.ErrBalanceBelowFee), "got %v", err)
			assert.False(t, errno.IsRetryable(err))

			l.AssertNotCalled(t, "SubmitTransaction", mock.Anything, mock.Anything)
			l.AssertNotCalled(t, "WaitForConfirmation", mock.Anything, mock.Anything, mock.Anything)
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BalanceBelowFeeTotal))
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.OperationsTotal.WithLabelValues(OpSweep, monitor.ResultFailure)))
		})
	}
}

func TestSweepWallet_StaleBlockhashPropagates(t *testing.T) {
	svc, l, kp, _ := newTestService(t)

	l.On("GetBalance", mock.Anything, kp.Address()).Return(model.Lamports(1_000_000), nil)
	l.On("GetLatestBlockhash", mock.Anything).Return(testBlockhash, nil)
	l.On("EstimateFee", mock.Anything, mock.Anything).Return(model.Lamports(5000), nil)
	l.On("SubmitTransaction", mock.Anything, signedWith(995_000)).Return(testSig, nil)
	l.On("WaitForConfirmation", mock.Anything, testSig, uint64(500)).
		Return(uint64(0), errno.Wrapf(errno.ErrStaleBlockhash, "block height exceeded"))

	_, err := svc.SweepWallet(context.Background(), kp, testDest)
	assert.True(t, errors.Is(err, errno.ErrStaleBlockhash), "got %v", err)
	assert.True(t, errno.IsRetryable(err))
}

func TestSweepWallet_FeeQueryFailsNoSubmission(t *testing.T) {
	svc, l, kp, _ := newTestService(t)

	l.On("GetBalance", mock.Anything, kp.Address()).Return(model.Lamports(1_000_000), nil)
	l.On("GetLatestBlockhash", mock.Anything).Return(testBlockhash, nil)
	l.On("EstimateFee", mock.Anything, mock.Anything).Return(model.Lamports(0), errno.Wrapf(errno.ErrStaleBlockhash, "unknown blockhash"))

	_, err := svc.SweepWallet(context.Background(), kp, testDest)
	assert.True(t, errors.Is(err, errno.ErrStaleBlockhash), "got %v", err)
	l.AssertNotCalled(t, "SubmitTransaction", mock.Anything, mock.Anything)
}

func TestSweepWallet_InvalidRequest(t *testing.T) {
	svc, l, kp, _ := newTestService(t)

	_, err := svc.SweepWallet(context.Background(), kp, model.Address{})
	assert.True(t, errors.Is(err, errno.ErrInvalidRequest), "got %v", err)

	kp.Destroy()
	_, err = svc.SweepWallet(context.Background(), kp, testDest)
	assert.True(t, errors.Is(err, errno.ErrInvalidRequest), "got %v", err)

	l.AssertNotCalled(t, "GetBalance", mock.Anything, mock.Anything)
}

func TestTransfer_Success(t *testing.T) {
	svc, l, kp, _ := newTestService(t)

	l.On("GetBalance", mock.Anything, kp.Address()).Return(model.Lamports(1_000_000), nil)
	l.On("GetLatestBlockhash", mock.Anything).Return(testBlockhash, nil)
	l.On("EstimateFee", mock.Anything, signedWith(995_000)).Return(model.Lamports(5000), nil)
	l.On("SubmitTransaction", mock.Anything, signedWith(995_000)).Return(testSig, nil)
	l.On("WaitForConfirmation", mock.Anything, testSig, uint64(500)).Return(uint64(7), nil)

	res, err := svc.Transfer(context.Background(), &model.TransferRequest{Source: kp, Destination: testDest, Amount: 995_000})
	require.NoError(t, err)
	l.AssertExpectations(t)

	assert.Equal(t, OpTransfer, res.Operation)
	assert.Equal(t, model.Lamports(995_000), res.Amount)
	assert.Equal(t, model.Lamports(5000), res.Fee)
}

func TestTransfer_OverBalanceSkipsBlockhash(t *testing.T) {
	svc, l, kp, _ := newTestService(t)

	l.On("GetBalance", mock.Anything, kp.Address()).Return(model.Lamports(1_000), nil)

	_, err := svc.Transfer(context.Background(), &model.TransferRequest{Source: kp, Destination: testDest, Amount: 1_001})
	assert.True(t, errors.Is(err, errno.ErrInsufficientFunds), "got %v", err)

	l.AssertNotCalled(t, "GetLatestBlockhash", mock.Anything)
	l.AssertNotCalled(t, "SubmitTransaction", mock.Anything, mock.Anything)
}

func TestTransfer_FeeExceedsRemainder(t *testing.T) {
	svc, l, kp, _ := newTestService(t)

	l.On("GetBalance", mock.Anything, kp.Address()).Return(model.Lamports(10_000), nil)
	l.On("GetLatestBlockhash", mock.Anything).Return(testBlockhash, nil)
	l.On("EstimateFee", mock.Anything, signedWith(6_000)).Return(model.Lamports(5000), nil)

	_, err := svc.Transfer(context.Background(), &model.TransferRequest{Source: kp, Destination: testDest, Amount: 6_000})
	assert.True(t, errors.Is(err, errno.ErrInsufficientFunds), "got %v", err)
	l.AssertNotCalled(t, "SubmitTransaction", mock.Anything, mock.Anything)
}

func TestTransfer_NetworkError(t *testing.T) {
	svc, l, kp, metrics := newTestService(t)

	l.On("GetBalance", mock.Anything, kp.Address()).
		Return(model.Lamports(0), errno.Wrap(errno.ErrNetwork, errors.New("dial tcp: connection refused")))

	_, err := svc.Transfer(context.Background(), &model.TransferRequest{Source: kp, Destination: testDest, Amount: 1})
	assert.True(t, errors.Is(err, errno.ErrNetwork), "got %v", err)
	assert.True(t, errno.IsRetryable(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.OperationsTotal.WithLabelValues(OpTransfer, monitor.ResultFailure)))
}

func TestTransfer_SubmitRejected(t *testing.T) {
	svc, l, kp, _ := newTestService(t)

	l.On("GetBalance", mock.Anything, kp.Address()).Return(model.Lamports(1_000_000), nil)
	l.On("GetLatestBlockhash", mock.Anything).Return(testBlockhash, nil)
	l.On("EstimateFee", mock.Anything, mock.Anything).Return(model.Lamports(5000), nil)
	l.On("SubmitTransaction", mock.Anything, mock.Anything).
		Return("", errno.Wrapf(errno.ErrStaleBlockhash, "Blockhash not found"))

	_, err := svc.Transfer(context.Background(), &model.TransferRequest{Source: kp, Destination: testDest, Amount: 10})
	assert.True(t, errors.Is(err, errno.ErrStaleBlockhash), "got %v", err)
	l.AssertNotCalled(t, "WaitForConfirmation", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestAirdrop(t *testing.T) {
	svc, l, kp, _ := newTestService(t)

	l.On("RequestAirdrop", mock.Anything, kp.Address(), DefaultAirdropAmount).Return(testSig, nil)
	l.On("WaitForConfirmation", mock.Anything, testSig, uint64(0)).Return(uint64(99), nil)

	res, err := svc.RequestAirdrop(context.Background(), kp.Address(), DefaultAirdropAmount)
	require.NoError(t, err)
	assert.Equal(t, OpAirdrop, res.Operation)
	assert.Equal(t, model.Lamports(2_000_000_000), res.Amount)
	assert.Equal(t, uint64(99), res.Slot)
}

func TestRequestAirdrop_Errors(t *testing.T) {
	svc, l, kp, _ := newTestService(t)

	l.On("RequestAirdrop", mock.Anything, kp.Address(), model.Lamports(1)).
		Return("", errno.Wrapf(errno.ErrFaucetRejected, "airdrop limit"))

	_, err := svc.RequestAirdrop(context.Background(), kp.Address(), 1)
	assert.True(t, errors.Is(err, errno.ErrFaucetRejected), "got %v", err)
	assert.False(t, errno.IsRetryable(err))
	l.AssertNotCalled(t, "WaitForConfirmation", mock.Anything, mock.Anything, mock.Anything)

	_, err = svc.RequestAirdrop(context.Background(), model.Address{}, 1)
	assert.True(t, errors.Is(err, errno.ErrInvalidRequest), "got %v", err)

	_, err = svc.RequestAirdrop(context.Background(), kp.Address(), 0)
	assert.True(t, errors.Is(err, errno.ErrInvalidRequest), "got %v", err)
}

func TestGenerateKeypair(t *testing.T) {
	svc, _, _, metrics := newTestService(t)

	a, err := svc.GenerateKeypair(context.Background())
	require.NoError(t, err)
	b, err := svc.GenerateKeypair(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.Address(), b.Address())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.OperationsTotal.WithLabelValues(OpGenerateKeypair, monitor.ResultSuccess)))
}

func TestLoadKeypair(t *testing.T) {
	svc, _, kp, _ := newTestService(t)

	loaded, err := svc.LoadKeypair(context.Background())
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), loaded.Address())

	failing := NewWalletService(new(mockLedger), ledger.NewTransferBuilder(), providerFunc(func(context.Context) (*model.Keypair, error) {
		return nil, errors.New("permission denied")
	}), nil, "devnet")
	_, err = failing.LoadKeypair(context.Background())
	assert.True(t, errors.Is(err, errno.ErrInvalidCredential), "got %v", err)

	none := NewWalletService(new(mockLedger), ledger.NewTransferBuilder(), nil, nil, "devnet")
	_, err = none.LoadKeypair(context.Background())
	assert.True(t, errors.Is(err, errno.ErrInvalidCredential), "got %v", err)
}

func TestBalance(t *testing.T) {
	svc, l, kp, _ := newTestService(t)
	l.On("GetBalance", mock.Anything, kp.Address()).Return(model.Lamports(123), nil)

	bal, err := svc.Balance(context.Background(), kp.Address())
	require.NoError(t, err)
	assert.Equal(t, model.Lamports(123), bal)

	_, err = svc.Balance(context.Background(), model.Address{})
	assert.True(t, errors.Is(err, errno.ErrInvalidRequest), "got %v", err)
}
