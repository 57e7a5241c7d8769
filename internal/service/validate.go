package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	switch strings.ToLower(c.NetType) {
	case strings.ToLower(NetMain), strings.ToLower(NetTest), strings.ToLower(NetCustom):
	default:
		return fmt.Errorf("netType must be one of %s, %s, %s, got %q", NetMain, NetTest, NetCustom, c.NetType)
	}

	n := c.Network()
	if n.RPCURL == "" {
		return fmt.Errorf("networks.%s.rpcUrl is required", c.NetType)
	}
	if n.GasPrice != "" {
		if _, err := ParseWei(n.GasPrice); err != nil {
			return fmt.Errorf("networks.%s.gasPrice: %w", c.NetType, err)
		}
	}

	if c.Contracts.OptimizerRuns < 1 {
		return errors.New("contracts.optimizerRuns must be >= 1")
	}
	addrs := map[string]string{
		"contracts.stickerAddr":      c.Contracts.StickerAddr,
		"contracts.pasarAddr":        c.Contracts.PasarAddr,
		"contracts.galleriaAddr":     c.Contracts.GalleriaAddr,
		"contracts.erc20Addr":        c.Contracts.ERC20Addr,
		"contracts.proxiedNftAddr":   c.Contracts.ProxiedNftAddr,
		"contracts.proxiedPasarAddr": c.Contracts.ProxiedPasarAddr,
		"contracts.newNftAddr":       c.Contracts.NewNftAddr,
		"contracts.newPasarAddr":     c.Contracts.NewPasarAddr,
		"suite.platformAddr":         c.Suite.PlatformAddr,
		"suite.newPlatformAddr":      c.Suite.NewPlatformAddr,
	}
	for key, addr := range addrs {
		if addr != "" && !common.IsHexAddress(addr) {
			return fmt.Errorf("%s is not a valid address: %q", key, addr)
		}
	}

	amounts := map[string]string{
		"suite.tokenId":         c.Suite.TokenID,
		"suite.platformFeeRate": c.Suite.PlatformFeeRate,
		"suite.minFee":          c.Suite.MinFee,
		"suite.newMinFee":       c.Suite.NewMinFee,
	}
	for key, s := range amounts {
		if _, err := ParseWei(s); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	if c.Suite.AuctionDuration < 0 || c.Suite.AuctionWait < 0 || c.Suite.AuctionWaitV2 < 0 {
		return errors.New("suite auction durations must be >= 0")
	}
	if c.RPC.Timeout <= 0 {
		return errors.New("rpc.timeout must be > 0")
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}
