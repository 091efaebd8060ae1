package errno

import (
	"errors"
	"fmt"
)

// Errno defines the error code logic
// Cause 保存底层错误 (RPC 错误、网络错误等)，只用于排查，不参与比较
type Errno struct {
	Code    int
	Message string
	Cause   error
}

func (e *Errno) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Errno) Unwrap() error {
	return e.Cause
}

// Is 按错误码比较，这样 errors.Is(err, errno.ErrStaleBlockhash) 对带 Cause 的错误同样成立
func (e *Errno) Is(target error) bool {
	var t *Errno
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Wrap 基于某个错误类型附加底层原因，返回新的实例，不修改全局变量
func Wrap(kind *Errno, cause error) *Errno {
	return &Errno{Code: kind.Code, Message: kind.Message, Cause: cause}
}

// Wrapf 同 Wrap，原因由格式化字符串构造
func Wrapf(kind *Errno, format string, args ...any) *Errno {
	return Wrap(kind, fmt.Errorf(format, args...))
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var typed *Errno
	if errors.As(err, &typed) {
		return typed.Code, typed.Error()
	}
	return InternalServerError.Code, err.Error()
}

// IsRetryable 判断调用方是否可以安全地重试 (重新获取链上状态后)
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrStaleBlockhash)
}

// Common Errors
var (
	OK                  = &Errno{Code: 0, Message: "Success"}
	InternalServerError = &Errno{Code: 10001, Message: "Internal server error"}
)

// Wallet Errors (30000+)
var (
	ErrNetwork           = &Errno{Code: 30001, Message: "Ledger endpoint unreachable"}
	ErrFaucetRejected    = &Errno{Code: 30002, Message: "Faucet rejected airdrop request"}
	ErrInsufficientFunds = &Errno{Code: 30003, Message: "Insufficient funds"}
	ErrBalanceBelowFee   = &Errno{Code: 30004, Message: "Balance does not cover transaction fee"}
	ErrStaleBlockhash    = &Errno{Code: 30005, Message: "Blockhash expired before confirmation"}
	ErrInvalidCredential = &Errno{Code: 30006, Message: "Invalid credential"}
	ErrInvalidRequest    = &Errno{Code: 30007, Message: "Invalid request"}
	ErrTransactionFailed = &Errno{Code: 30008, Message: "Transaction failed on chain"}
)
