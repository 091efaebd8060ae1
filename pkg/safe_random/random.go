package safe_random

import (
	"crypto/rand"
	"fmt"
	"io"
)

// SeedSize 是 ed25519 私钥种子长度
const SeedSize = 32

// Reader 是一个全局共享的加密安全随机数生成器实例。
// 默认为 crypto/rand.Reader，测试中可以替换为确定性的 Reader。
var Reader io.Reader = rand.Reader

// GenerateRandomBytes 从 Reader 读取指定长度的安全随机字节切片。
// 如果系统的安全随机数生成器失败，将返回错误。
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	// 注意：只有读取了 len(b) 个字节，err 才为 nil。
	if _, err := io.ReadFull(Reader, b); err != nil {
		return nil, fmt.Errorf("生成随机字节失败: %w", err)
	}
	return b, nil
}

// GenerateSeed 生成一个新的 32 字节 ed25519 种子
func GenerateSeed() ([]byte, error) {
	return GenerateRandomBytes(SeedSize)
}

// Zero 将字节切片原地清零，用于销毁私钥材料
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
