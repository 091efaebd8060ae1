package model

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressSize 是 Solana 账户地址 (ed25519 公钥) 的字节长度
const AddressSize = 32

// Address 链上账户标识，定长、不可变，可以直接用 == 比较
type Address [AddressSize]byte

// ParseAddress 解析 Base58 编码的地址
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("无效的地址 %q: %w", s, err)
	}
	if len(raw) != AddressSize {
		return a, fmt.Errorf("无效的地址 %q: 长度 %d, 期望 %d", s, len(raw), AddressSize)
	}
	copy(a[:], raw)
	return a, nil
}

// MustParseAddress 仅用于常量地址和测试
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// Hash 区块哈希，编码方式与地址相同
type Hash [32]byte

func ParseHash(s string) (Hash, error) {
	a, err := ParseAddress(s)
	if err != nil {
		return Hash{}, fmt.Errorf("无效的区块哈希: %w", err)
	}
	return Hash(a), nil
}

func (h Hash) String() string {
	return base58.Encode(h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Blockhash 近期区块哈希及其有效期
// 当链的区块高度超过 LastValidBlockHeight 后，引用该哈希的交易不会再被接受
type Blockhash struct {
	Hash                 Hash
	LastValidBlockHeight uint64
}
