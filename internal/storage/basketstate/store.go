// Package basketstate keeps the basket ledger: the ordered asset list, token
// balances, share supply and fee state. Every mutation is journaled to a WAL
// so restarts recover the exact ledger.
package basketstate

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/gowal"

	"github.com/ilau020203/index/internal/domain"
)

const stateKey = "basket_state"

// Store is the in-memory ledger with WAL-backed recovery. Requests against
// one basket are serialized here; the engine itself stays lock-free.
type Store struct {
	mu       sync.RWMutex
	wal      *gowal.Wal
	assets   []domain.Asset
	balances map[common.Address]decimal.Decimal
	account  domain.ShareAccount
}

// storedState is the serializable ledger snapshot written to the WAL.
type storedState struct {
	Assets            []storedAsset     `json:"assets"`
	Balances          map[string]string `json:"balances"`
	TotalShares       string            `json:"total_shares"`
	FeeBps            int64             `json:"fee_bps"`
	FeePeriod         time.Duration     `json:"fee_period"`
	LastFeeWithdrawal time.Time         `json:"last_fee_withdrawal"`
}

type storedAsset struct {
	Address  string `json:"address"`
	Decimals int32  `json:"decimals"`
	Target   string `json:"target"`
}

// NewStore opens the ledger, replaying the journal if one exists. The fee
// parameters seed a fresh ledger and are ignored when state is recovered.
func NewStore(dir string, feeBps int64, feePeriod time.Duration, genesis time.Time) (*Store, error) {
	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "basket_",
		SegmentThreshold: 1000,
		MaxSegments:      100,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init basket wal")
	}

	s := &Store{
		wal:      wal,
		balances: make(map[common.Address]decimal.Decimal),
		account: domain.ShareAccount{
			TotalShares:       decimal.Zero,
			FeeBps:            feeBps,
			FeePeriod:         feePeriod,
			LastFeeWithdrawal: genesis,
		},
	}

	if err := s.replay(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) replay() error {
	var last []byte
	for msg := range s.wal.Iterator() {
		if msg.Key == stateKey {
			last = msg.Value
		}
	}
	if last == nil {
		return nil
	}

	var st storedState
	if err := json.Unmarshal(last, &st); err != nil {
		return errors.Wrap(err, "unmarshal basket state")
	}

	s.assets = make([]domain.Asset, 0, len(st.Assets))
	for _, a := range st.Assets {
		target, err := decimal.NewFromString(a.Target)
		if err != nil {
			return errors.Wrapf(err, "parse target for %s", a.Address)
		}
		s.assets = append(s.assets, domain.Asset{
			Address:  common.HexToAddress(a.Address),
			Decimals: a.Decimals,
			Target:   target,
		})
	}

	s.balances = make(map[common.Address]decimal.Decimal, len(st.Balances))
	for addr, raw := range st.Balances {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return errors.Wrapf(err, "parse balance for %s", addr)
		}
		s.balances[common.HexToAddress(addr)] = amount
	}

	total, err := decimal.NewFromString(st.TotalShares)
	if err != nil {
		return errors.Wrap(err, "parse total shares")
	}
	s.account = domain.ShareAccount{
		TotalShares:       total,
		FeeBps:            st.FeeBps,
		FeePeriod:         st.FeePeriod,
		LastFeeWithdrawal: st.LastFeeWithdrawal,
	}

	return nil
}

// persist journals the full ledger state. Callers hold the write lock.
func (s *Store) persist() error {
	st := storedState{
		Assets:            make([]storedAsset, 0, len(s.assets)),
		Balances:          make(map[string]string, len(s.balances)),
		TotalShares:       s.account.TotalShares.String(),
		FeeBps:            s.account.FeeBps,
		FeePeriod:         s.account.FeePeriod,
		LastFeeWithdrawal: s.account.LastFeeWithdrawal,
	}
	for _, a := range s.assets {
		st.Assets = append(st.Assets, storedAsset{
			Address:  a.Address.Hex(),
			Decimals: a.Decimals,
			Target:   a.Target.String(),
		})
	}
	for addr, amount := range s.balances {
		st.Balances[addr.Hex()] = amount.String()
	}

	b, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "marshal basket state")
	}

	return errors.Wrap(s.wal.Write(s.wal.CurrentIndex()+1, stateKey, b), "journal basket state")
}

// Assets returns a copy of the ordered asset list.
func (s *Store) Assets() []domain.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Asset, len(s.assets))
	copy(out, s.assets)
	return out
}

// SetAssets replaces the asset list after an admin mutation.
func (s *Store) SetAssets(assets []domain.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets = make([]domain.Asset, len(assets))
	copy(s.assets, assets)
	return s.persist()
}

// BalanceOf returns the held amount of an asset in its base units.
func (s *Store) BalanceOf(asset common.Address) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.balances[asset]; ok {
		return b
	}
	return decimal.Zero
}

// Credit adds tokens to the basket's holding of an asset.
func (s *Store) Credit(asset common.Address, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errors.Errorf("negative credit %s", amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.balances[asset]
	if !ok {
		current = decimal.Zero
	}
	s.balances[asset] = current.Add(amount)
	return s.persist()
}

// Debit removes tokens from the basket's holding of an asset.
func (s *Store) Debit(asset common.Address, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errors.Errorf("negative debit %s", amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.balances[asset]
	if !ok || current.Cmp(amount) < 0 {
		return errors.Errorf("insufficient balance of %s: have %s, need %s", asset.Hex(), current, amount)
	}
	s.balances[asset] = current.Sub(amount)
	return s.persist()
}

// TotalShares returns the outstanding index share supply.
func (s *Store) TotalShares() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account.TotalShares
}

// ShareAccount returns the current share and fee state.
func (s *Store) ShareAccount() domain.ShareAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

// MintShares increases the share supply.
func (s *Store) MintShares(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errors.Errorf("negative mint %s", amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account.TotalShares = s.account.TotalShares.Add(amount)
	return s.persist()
}

// BurnShares decreases the share supply.
func (s *Store) BurnShares(amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount.IsNegative() || amount.Cmp(s.account.TotalShares) > 0 {
		return errors.Errorf("burn %s exceeds supply %s", amount, s.account.TotalShares)
	}
	s.account.TotalShares = s.account.TotalShares.Sub(amount)
	return s.persist()
}

// AdvanceFeeClock moves the fee withdrawal timestamp by whole periods.
func (s *Store) AdvanceFeeClock(periods int64) error {
	if periods <= 0 {
		return errors.Errorf("non-positive period count %d", periods)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account.LastFeeWithdrawal = s.account.LastFeeWithdrawal.Add(time.Duration(periods) * s.account.FeePeriod)
	return s.persist()
}

// Close flushes and closes the journal.
func (s *Store) Close() error {
	return s.wal.Close()
}
