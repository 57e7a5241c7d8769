package service

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// ParseWei 将十进制字符串解析为 *big.Int，空字符串返回 nil（表示自动）
func ParseWei(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer value: %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative value not allowed: %q", s)
	}
	return v, nil
}

// MustBig 用于常量参数，解析失败直接 panic
func MustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(fmt.Sprintf("service: bad integer constant %q", s))
	}
	return v
}

// NormalizeKey 去掉私钥的 0x 前缀与首尾空白
func NormalizeKey(pk string) string {
	pk = strings.TrimSpace(pk)
	return strings.TrimPrefix(strings.TrimPrefix(pk, "0x"), "0X")
}

// 将等待时长格式化为 "2m"、"150s" 这样的短格式
func FormatWait(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		return fmt.Sprintf("%dh", d/time.Hour)
	}
	if d >= time.Minute && d%time.Minute == 0 {
		return fmt.Sprintf("%dm", d/time.Minute)
	}
	if d >= time.Second && d%time.Second == 0 {
		return fmt.Sprintf("%ds", d/time.Second)
	}
	return d.String()
}

// FormatEther 以 18 位小数显示 wei，仅用于日志
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	f := new(big.Float).SetPrec(256).SetInt(wei)
	f.Quo(f, big.NewFloat(1e18))
	s := f.Text('f', 18)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
