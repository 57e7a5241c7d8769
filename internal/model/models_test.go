package model

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func wei(s string) *big.Int {
	v, _ := new(big.Int).SetString(s, 10)
	return v
}

func TestSellerEarning(t *testing.T) {
	tests := []struct {
		name                 string
		filled, royalty, fee *big.Int
		want                 string
	}{
		{"v1 without platform fee", wei("600000000000000000"), wei("18000000000000000"), nil, "582000000000000000"},
		{"v2 with platform fee", wei("600000000000000000"), wei("18000000000000000"), wei("12000000000000000"), "570000000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SellerEarning(tt.filled, tt.royalty, tt.fee).String())
		})
	}
}

func TestPartialPrice(t *testing.T) {
	got := PartialPrice(wei("9000000000000000000"), big.NewInt(12), big.NewInt(20))
	assert.Equal(t, "5400000000000000000", got.String())
}

func TestLastFill(t *testing.T) {
	var extra OrderExtra
	_, ok := extra.LastFill()
	assert.False(t, ok)

	extra.PartialFills = []PartialFill{{BuyerURI: "a"}, {BuyerURI: "b"}}
	last, ok := extra.LastFill()
	assert.True(t, ok)
	assert.Equal(t, "b", last.BuyerURI)
}

func TestFilledStatsString(t *testing.T) {
	s := FilledStats{Count: 2, TotalPrice: big.NewInt(2100), TotalRoyalty: big.NewInt(63)}
	assert.Equal(t, "filled count: 2 total filled: 2100 total royalty: 63", s.String())
}

func TestDeploymentYAMLKeys(t *testing.T) {
	var d Deployment
	d.Set("stickerAddr", common.HexToAddress("0x020c7303664bc88ae92cE3D380BF361E03B78B81"))

	out, err := yaml.Marshal(d)
	assert.NoError(t, err)
	assert.Contains(t, string(out), "stickerAddr:")
	assert.Contains(t, string(out), "0x020c7303664bc88ae92cE3D380BF361E03B78B81")
}
