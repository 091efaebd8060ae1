package errno

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapMatchesByCode(t *testing.T) {
	cause := errors.New("Blockhash not found")
	err := Wrap(ErrStaleBlockhash, cause)

	assert.True(t, errors.Is(err, ErrStaleBlockhash))
	assert.False(t, errors.Is(err, ErrNetwork))
	assert.True(t, errors.Is(err, cause), "Cause 应该可以通过 Unwrap 取到")
	assert.Contains(t, err.Error(), "Blockhash not found")

	// 全局变量不应被修改
	assert.Nil(t, ErrStaleBlockhash.Cause)
}

func TestWrappedTwice(t *testing.T) {
	err := fmt.Errorf("sweep: %w", Wrap(ErrBalanceBelowFee, nil))
	assert.True(t, errors.Is(err, ErrBalanceBelowFee))

	code, _ := Decode(err)
	assert.Equal(t, ErrBalanceBelowFee.Code, code)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, OK.Code},
		{"errno", ErrFaucetRejected, ErrFaucetRejected.Code},
		{"wrapped errno", Wrap(ErrInvalidCredential, errors.New("bad json")), ErrInvalidCredential.Code},
		{"plain error", errors.New("boom"), InternalServerError.Code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := Decode(tt.err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"network", Wrap(ErrNetwork, context.DeadlineExceeded), true},
		{"stale blockhash", ErrStaleBlockhash, true},
		{"insufficient funds", ErrInsufficientFunds, false},
		{"balance below fee", ErrBalanceBelowFee, false},
		{"invalid credential", ErrInvalidCredential, false},
		{"faucet", ErrFaucetRejected, false},
		{"plain", errors.New("x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
