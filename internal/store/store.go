// Package store persists the set of bids this agent has submitted and is
// still tracking, so a restart can resume exiting/claiming them instead of
// losing track of outstanding on-chain positions.
//
// The tracked-bid list is stored as a single JSON file. Writes use atomic
// file replacement (write to .tmp, then rename) to prevent corruption from
// partial writes or crashes mid-save.
// Grounded on internal/store/store.go, algorithm unchanged, re-themed from
// a Position-per-market file to a single []types.TrackedBid file (this
// agent tracks bids in exactly one auction, not many markets).
package store

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"cca-agent/pkg/types"
)

const fileName = "tracked_bids.json"

// Store persists tracked bids to a JSON file in a designated directory.
// All operations are mutex-protected to prevent concurrent file corruption.
type Store struct {
	dir string
	mu  sync.Mutex
}

// Open creates a store backed by the given directory.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Close is a no-op for file-based storage.
func (s *Store) Close() error {
	return nil
}

// persistedBid mirrors types.TrackedBid with exported, JSON-friendly
// fields — BidId and common.Hash hold their state in unexported fields, so
// neither round-trips through encoding/json on its own.
type persistedBid struct {
	Id     string `json:"id"`
	TxHash string `json:"tx_hash"`
}

func toPersisted(bids []types.TrackedBid) []persistedBid {
	out := make([]persistedBid, len(bids))
	for i, b := range bids {
		out[i] = persistedBid{Id: b.Id.Big().String(), TxHash: b.TxHash.Hex()}
	}
	return out
}

func fromPersisted(bids []persistedBid) ([]types.TrackedBid, error) {
	out := make([]types.TrackedBid, len(bids))
	for i, b := range bids {
		id, ok := new(big.Int).SetString(b.Id, 10)
		if !ok {
			return nil, fmt.Errorf("decode tracked bid id %q", b.Id)
		}
		out[i] = types.TrackedBid{Id: types.BidIdFromBig(id), TxHash: common.HexToHash(b.TxHash)}
	}
	return out, nil
}

// SaveTrackedBids atomically persists the full set of currently tracked
// bids, overwriting whatever was there before.
func (s *Store) SaveTrackedBids(bids []types.TrackedBid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(toPersisted(bids))
	if err != nil {
		return fmt.Errorf("marshal tracked bids: %w", err)
	}

	path := filepath.Join(s.dir, fileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write tracked bids: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadTrackedBids restores the tracked-bid list from disk. Returns nil, nil
// if nothing has been saved yet (fresh agent, no prior session).
func (s *Store) LoadTrackedBids() ([]types.TrackedBid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read tracked bids: %w", err)
	}

	var persisted []persistedBid
	if err := json.Unmarshal(data, &persisted); err != nil {
		return nil, fmt.Errorf("unmarshal tracked bids: %w", err)
	}
	return fromPersisted(persisted)
}
