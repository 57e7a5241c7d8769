package execution

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"pasar-contract-tools/internal/service"
)

// Account 持有私钥的外部账户
type Account struct {
	Address common.Address
	key     *ecdsa.PrivateKey
}

// NewAccount 由十六进制私钥构造账户，允许带 0x 前缀
func NewAccount(privateKey string) (*Account, error) {
	pk := service.NormalizeKey(privateKey)
	if pk == "" {
		return nil, ErrNoKey
	}
	key, err := crypto.HexToECDSA(pk)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return AccountFromKey(key), nil
}

// AccountFromKey 直接使用已有的私钥
func AccountFromKey(key *ecdsa.PrivateKey) *Account {
	return &Account{
		Address: crypto.PubkeyToAddress(key.PublicKey),
		key:     key,
	}
}

func (a *Account) String() string {
	return a.Address.Hex()
}
