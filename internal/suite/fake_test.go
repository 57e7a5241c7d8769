package suite

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"pasar-contract-tools/internal/contract"
	"pasar-contract-tools/internal/execution"
)

// fakeChain 按 ABI 解码调用并分发给 Go 实现的合约，用于不依赖 solc 的流程测试
type fakeChain struct {
	mu        sync.Mutex
	contracts map[common.Address]*fakeContract
	balances  map[common.Address]*big.Int
	logs      []types.Log
	queries   []ethereum.FilterQuery
	sent      []string
	now       uint64
	fee       *big.Int
}

type fakeCall struct {
	From  common.Address
	Value *big.Int
	Args  []interface{}
}

func (c *fakeCall) addr(i int) common.Address { return c.Args[i].(common.Address) }
func (c *fakeCall) big(i int) *big.Int        { return c.Args[i].(*big.Int) }

type handler func(c *fakeCall) ([]interface{}, error)

type fakeContract struct {
	abi      abi.ABI
	handlers map[string]handler
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		contracts: make(map[common.Address]*fakeContract),
		balances:  make(map[common.Address]*big.Int),
		now:       1_700_000_000,
		fee:       big.NewInt(21_000_000),
	}
}

func (f *fakeChain) register(addr common.Address, parsed abi.ABI, handlers map[string]handler) {
	f.contracts[addr] = &fakeContract{abi: parsed, handlers: handlers}
}

func (f *fakeChain) setBalance(addr common.Address, v *big.Int) {
	f.balances[addr] = new(big.Int).Set(v)
}

// credit 调用方需持有锁
func (f *fakeChain) credit(addr common.Address, v *big.Int) {
	f.balances[addr] = new(big.Int).Add(f.balance(addr), v)
}

func (f *fakeChain) balance(addr common.Address) *big.Int {
	if v, ok := f.balances[addr]; ok {
		return v
	}
	return new(big.Int)
}

func (f *fakeChain) decode(to *common.Address, data []byte) (*abi.Method, handler, []interface{}, error) {
	if to == nil {
		return nil, nil, nil, errors.New("fake chain: contract creation not supported")
	}
	c, ok := f.contracts[*to]
	if !ok {
		return nil, nil, nil, fmt.Errorf("fake chain: no contract at %s", to.Hex())
	}
	if len(data) < 4 {
		return nil, nil, nil, errors.New("fake chain: short call data")
	}
	m, err := c.abi.MethodById(data[:4])
	if err != nil {
		return nil, nil, nil, err
	}
	args, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, nil, err
	}
	h, ok := c.handlers[m.Name]
	if !ok {
		return m, nil, args, fmt.Errorf("execution reverted: %s not implemented", m.Name)
	}
	return m, h, args, nil
}

func (f *fakeChain) Send(_ context.Context, from *execution.Account, tx execution.Tx) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, h, args, err := f.decode(tx.To, tx.Data)
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}
	value := new(big.Int)
	if tx.Value != nil {
		value.Set(tx.Value)
	}
	f.balances[from.Address] = new(big.Int).Sub(f.balance(from.Address), new(big.Int).Add(value, f.fee))
	f.sent = append(f.sent, m.Name)
	receipt := &types.Receipt{
		Status:  types.ReceiptStatusSuccessful,
		GasUsed: 21000,
		TxHash:  common.BigToHash(big.NewInt(int64(len(f.sent)))),
	}
	if _, err := h(&fakeCall{From: from.Address, Value: value, Args: args}); err != nil {
		receipt.Status = types.ReceiptStatusFailed
		return receipt, fmt.Errorf("%w: %v", execution.ErrTxReverted, err)
	}
	return receipt, nil
}

func (f *fakeChain) Call(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, h, args, err := f.decode(msg.To, msg.Data)
	if err != nil {
		return nil, err
	}
	out, err := h(&fakeCall{From: msg.From, Value: new(big.Int), Args: args})
	if err != nil {
		return nil, err
	}
	return m.Outputs.Pack(out...)
}

func (f *fakeChain) Balance(_ context.Context, addr common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return new(big.Int).Set(f.balance(addr)), nil
}

func (f *fakeChain) LatestHeader(context.Context) (*types.Header, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &types.Header{Number: big.NewInt(int64(len(f.sent))), Time: f.now}, nil
}

func (f *fakeChain) GasFee(context.Context, *types.Receipt) (*big.Int, error) {
	return new(big.Int).Set(f.fee), nil
}

func (f *fakeChain) CodeAt(context.Context, common.Address) ([]byte, error) {
	return nil, nil
}

func (f *fakeChain) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	var out []types.Log
	for _, lg := range f.logs {
		for _, addr := range q.Addresses {
			if lg.Address == addr {
				out = append(out, lg)
			}
		}
	}
	return out, nil
}

func (f *fakeChain) ChainID() *big.Int {
	return big.NewInt(1337)
}

func (f *fakeChain) sentMethods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func fixed(vals ...interface{}) handler {
	return func(*fakeCall) ([]interface{}, error) { return vals, nil }
}

func mustABI(t testing.TB, s string) abi.ABI {
	t.Helper()
	parsed, err := contract.ParseABI([]byte(s))
	require.NoError(t, err)
	return parsed
}

func newAccount(t testing.TB) *execution.Account {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return execution.AccountFromKey(key)
}

func testAccounts(t testing.TB) *Accounts {
	return &Accounts{
		Deployer: newAccount(t),
		Creator:  newAccount(t),
		Seller:   newAccount(t),
		Buyer:    newAccount(t),
		Bidder:   newAccount(t),
		Owner:    newAccount(t),
	}
}

func newTestEnv(t testing.TB, exec execution.Executor) *Env {
	return NewEnv(exec, nil, Paths{}, SleepWaiter{D: time.Millisecond}, zaptest.NewLogger(t))
}

const stickerJSON = `[
  {"inputs":[{"name":"_owner","type":"address"},{"name":"_id","type":"uint256"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"_id","type":"uint256"},{"name":"_supply","type":"uint256"},{"name":"_uri","type":"string"},{"name":"_royalty","type":"uint256"}],"name":"mint","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_from","type":"address"},{"name":"_to","type":"address"},{"name":"_id","type":"uint256"},{"name":"_value","type":"uint256"}],"name":"safeTransferFrom","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_operator","type":"address"},{"name":"_approved","type":"bool"}],"name":"setApprovalForAll","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_owner","type":"address"},{"name":"_operator","type":"address"}],"name":"isApprovedForAll","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"_id","type":"uint256"},{"name":"_value","type":"uint256"}],"name":"burn","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_owner","type":"address"},{"name":"_id","type":"uint256"},{"name":"_value","type":"uint256"}],"name":"burnFrom","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// fakeSticker ERC1155 风格的余额与授权
type fakeSticker struct {
	balances  map[string]*big.Int
	approvals map[[2]common.Address]bool
	supply    *big.Int
}

func newFakeSticker() *fakeSticker {
	return &fakeSticker{
		balances:  make(map[string]*big.Int),
		approvals: make(map[[2]common.Address]bool),
		supply:    new(big.Int),
	}
}

func tokenKey(owner common.Address, id *big.Int) string {
	return owner.Hex() + "/" + id.String()
}

func (s *fakeSticker) balance(owner common.Address, id *big.Int) *big.Int {
	if v, ok := s.balances[tokenKey(owner, id)]; ok {
		return v
	}
	return new(big.Int)
}

func (s *fakeSticker) set(owner common.Address, id *big.Int, v int64) {
	s.balances[tokenKey(owner, id)] = big.NewInt(v)
}

// move 到零地址即销毁
func (s *fakeSticker) move(from, to common.Address, id, amount *big.Int) error {
	have := s.balance(from, id)
	if have.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient balance: have %v, need %v", have, amount)
	}
	s.balances[tokenKey(from, id)] = new(big.Int).Sub(have, amount)
	if to != (common.Address{}) {
		s.balances[tokenKey(to, id)] = new(big.Int).Add(s.balance(to, id), amount)
	} else {
		s.supply.Sub(s.supply, amount)
	}
	return nil
}

func (s *fakeSticker) allowed(owner, operator common.Address) bool {
	return owner == operator || s.approvals[[2]common.Address{owner, operator}]
}

func (s *fakeSticker) handlers() map[string]handler {
	return map[string]handler{
		"balanceOf": func(c *fakeCall) ([]interface{}, error) {
			return []interface{}{s.balance(c.addr(0), c.big(1))}, nil
		},
		"mint": func(c *fakeCall) ([]interface{}, error) {
			id, supply := c.big(0), c.big(1)
			s.balances[tokenKey(c.From, id)] = new(big.Int).Add(s.balance(c.From, id), supply)
			s.supply.Add(s.supply, supply)
			return nil, nil
		},
		"safeTransferFrom": func(c *fakeCall) ([]interface{}, error) {
			if !s.allowed(c.addr(0), c.From) {
				return nil, errors.New("caller is not owner nor approved")
			}
			return nil, s.move(c.addr(0), c.addr(1), c.big(2), c.big(3))
		},
		"setApprovalForAll": func(c *fakeCall) ([]interface{}, error) {
			s.approvals[[2]common.Address{c.From, c.addr(0)}] = c.Args[1].(bool)
			return nil, nil
		},
		"isApprovedForAll": func(c *fakeCall) ([]interface{}, error) {
			return []interface{}{s.approvals[[2]common.Address{c.addr(0), c.addr(1)}]}, nil
		},
		"burn": func(c *fakeCall) ([]interface{}, error) {
			return nil, s.move(c.From, common.Address{}, c.big(0), c.big(1))
		},
		"burnFrom": func(c *fakeCall) ([]interface{}, error) {
			if !s.allowed(c.addr(0), c.From) {
				return nil, errors.New("caller is not owner nor approved")
			}
			return nil, s.move(c.addr(0), common.Address{}, c.big(1), c.big(2))
		},
		"totalSupply": func(*fakeCall) ([]interface{}, error) {
			return []interface{}{new(big.Int).Set(s.supply)}, nil
		},
	}
}

const galleriaJSON = `[
  {"inputs":[],"name":"getTokenAddress","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"_tokenId","type":"uint256"},{"name":"_amount","type":"uint256"},{"name":"_didUri","type":"string"}],"name":"createPanel","outputs":[],"stateMutability":"payable","type":"function"},
  {"inputs":[{"name":"_panelId","type":"uint256"}],"name":"removePanel","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[],"name":"getActivePanelCount","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"_index","type":"uint256"}],"name":"getActivePanelByIndex","outputs":[{"components":[` + panelComponents + `],"name":"","type":"tuple"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"_panelId","type":"uint256"}],"name":"getPanelById","outputs":[{"components":[` + panelComponents + `],"name":"","type":"tuple"}],"stateMutability":"view","type":"function"}
]`

const panelComponents = `
  {"name":"panelId","type":"uint256"},
  {"name":"panelState","type":"uint256"},
  {"name":"sellerAddr","type":"address"},
  {"name":"tokenId","type":"uint256"},
  {"name":"amount","type":"uint256"},
  {"name":"fee","type":"uint256"},
  {"name":"didUri","type":"string"}`

type panel struct {
	PanelId    *big.Int
	PanelState *big.Int
	SellerAddr common.Address
	TokenId    *big.Int
	Amount     *big.Int
	Fee        *big.Int
	DidUri     string
}

// fakeGalleria 收取展位费转给平台，展出期间 NFT 托管在合约地址
type fakeGalleria struct {
	chain    *fakeChain
	sticker  *fakeSticker
	token    common.Address
	self     common.Address
	platform common.Address
	panels   []*panel
}

func (g *fakeGalleria) active() []*panel {
	var out []*panel
	for _, p := range g.panels {
		if p.PanelState.Int64() == 1 {
			out = append(out, p)
		}
	}
	return out
}

func (g *fakeGalleria) handlers() map[string]handler {
	return map[string]handler{
		"getTokenAddress": fixed(g.token),
		"createPanel": func(c *fakeCall) ([]interface{}, error) {
			if !g.sticker.allowed(c.From, g.self) {
				return nil, errors.New("galleria is not approved")
			}
			if err := g.sticker.move(c.From, g.self, c.big(0), c.big(1)); err != nil {
				return nil, err
			}
			g.chain.credit(g.platform, c.Value)
			g.panels = append(g.panels, &panel{
				PanelId:    big.NewInt(int64(len(g.panels) + 1)),
				PanelState: big.NewInt(1),
				SellerAddr: c.From,
				TokenId:    c.big(0),
				Amount:     c.big(1),
				Fee:        c.Value,
				DidUri:     c.Args[2].(string),
			})
			return nil, nil
		},
		"removePanel": func(c *fakeCall) ([]interface{}, error) {
			for _, p := range g.panels {
				if p.PanelId.Cmp(c.big(0)) != 0 {
					continue
				}
				if p.SellerAddr != c.From || p.PanelState.Int64() != 1 {
					return nil, errors.New("panel is not removable")
				}
				p.PanelState = big.NewInt(2)
				return nil, g.sticker.move(g.self, p.SellerAddr, p.TokenId, p.Amount)
			}
			return nil, errors.New("panel not found")
		},
		"getActivePanelCount": func(*fakeCall) ([]interface{}, error) {
			return []interface{}{big.NewInt(int64(len(g.active())))}, nil
		},
		"getActivePanelByIndex": func(c *fakeCall) ([]interface{}, error) {
			active := g.active()
			i := int(c.big(0).Int64())
			if i >= len(active) {
				return nil, errors.New("index out of range")
			}
			return []interface{}{*active[i]}, nil
		},
		"getPanelById": func(c *fakeCall) ([]interface{}, error) {
			for _, p := range g.panels {
				if p.PanelId.Cmp(c.big(0)) == 0 {
					return []interface{}{*p}, nil
				}
			}
			return nil, errors.New("panel not found")
		},
	}
}

func addr(n int64) common.Address {
	return common.BigToAddress(big.NewInt(n))
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
