package model

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL 1 SOL = 10^9 lamports
const LamportsPerSOL Lamports = 1_000_000_000

const solDecimals = 9

// Lamports 链上货币的最小单位
type Lamports uint64

// SOL 返回以 SOL 为单位的十进制字符串 (去掉末尾的 0)
func (l Lamports) SOL() string {
	return l.Decimal().String()
}

// Decimal 返回以 SOL 为单位的 decimal 值
func (l Lamports) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(l)), -solDecimals)
}

func (l Lamports) String() string {
	return fmt.Sprintf("%d lamports (%s SOL)", uint64(l), l.SOL())
}

// ParseSOL 将 "0.001" 这样的 SOL 金额转换为 lamports
// 不允许负数、超过 9 位小数或超出 uint64 范围
func ParseSOL(s string) (Lamports, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("无效的金额 %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("金额不能为负数: %s", s)
	}

	shifted := d.Shift(solDecimals)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("金额精度超过 %d 位小数: %s", solDecimals, s)
	}

	v := shifted.BigInt()
	if !v.IsUint64() {
		return 0, fmt.Errorf("金额超出范围: %s", s)
	}
	return Lamports(v.Uint64()), nil
}
