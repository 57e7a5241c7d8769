package suite

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"pasar-contract-tools/internal/execution"
	"pasar-contract-tools/internal/service"
)

// Role 测试流程中的账户角色
type Role string

const (
	RoleDeployer Role = "deployer"
	RoleCreator  Role = "creator"
	RoleSeller   Role = "seller"
	RoleBuyer    Role = "buyer"
	RoleBidder   Role = "bidder"
	RoleOwner    Role = "owner"
)

// Accounts 各角色的账户，未配置私钥的角色为 nil
type Accounts struct {
	Deployer *execution.Account
	Creator  *execution.Account
	Seller   *execution.Account
	Buyer    *execution.Account
	Bidder   *execution.Account
	Owner    *execution.Account
}

// LoadAccounts 从私钥生成账户
func LoadAccounts(keys service.AccountsConfig) (*Accounts, error) {
	acc := &Accounts{}
	for _, item := range []struct {
		role Role
		pk   string
		dst  **execution.Account
	}{
		{RoleDeployer, keys.DeployerPK, &acc.Deployer},
		{RoleCreator, keys.CreatorPK, &acc.Creator},
		{RoleSeller, keys.SellerPK, &acc.Seller},
		{RoleBuyer, keys.BuyerPK, &acc.Buyer},
		{RoleBidder, keys.BidderPK, &acc.Bidder},
		{RoleOwner, keys.OwnerPK, &acc.Owner},
	} {
		if strings.TrimSpace(item.pk) == "" {
			continue
		}
		a, err := execution.NewAccount(item.pk)
		if err != nil {
			return nil, fmt.Errorf("%s account: %w", item.role, err)
		}
		*item.dst = a
	}
	return acc, nil
}

func (a *Accounts) get(r Role) *execution.Account {
	switch r {
	case RoleDeployer:
		return a.Deployer
	case RoleCreator:
		return a.Creator
	case RoleSeller:
		return a.Seller
	case RoleBuyer:
		return a.Buyer
	case RoleBidder:
		return a.Bidder
	case RoleOwner:
		return a.Owner
	}
	return nil
}

// Require 检查流程需要的角色都已配置
func (a *Accounts) Require(roles ...Role) error {
	var missing []string
	for _, r := range roles {
		if a == nil || a.get(r) == nil {
			missing = append(missing, string(r))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", execution.ErrNoKey, strings.Join(missing, ", "))
	}
	return nil
}

func parseAddress(name, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", name, s)
	}
	return common.HexToAddress(s), nil
}
