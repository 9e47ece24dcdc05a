package storage

import (
	"encoding/binary"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/colorfulnotion/rollup/common"
	"github.com/colorfulnotion/rollup/log"
	"github.com/colorfulnotion/rollup/types"
)

var (
	headerPrefix     = []byte("hdr:")
	commitmentPrefix = []byte("cmt:")
	latestKey        = []byte("meta:latest")
)

const DefaultHeaderCacheSize = 1024

// headerKey orders headers by block number.
func headerKey(n types.BlockNumber) []byte {
	return binary.BigEndian.AppendUint32(append([]byte(nil), headerPrefix...), uint32(n))
}

func commitmentKey(c common.Word) []byte {
	return append(append([]byte(nil), commitmentPrefix...), c.Bytes()...)
}

// ChainStore persists built headers on a KVStore.
type ChainStore struct {
	kv    KVStore
	cache *lru.Cache[types.BlockNumber, *types.BlockHeader]
	mu    sync.Mutex
}

func NewChainStore(kv KVStore, cacheSize int) (*ChainStore, error) {
	cache, err := lru.New[types.BlockNumber, *types.BlockHeader](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &ChainStore{kv: kv, cache: cache}, nil
}

// PutHeader stores h. If its parent is stored, h must link to it.
func (cs *ChainStore) PutHeader(h *types.BlockHeader) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if parentNum, ok := h.BlockNum().Parent(); ok {
		parent, found, err := cs.GetHeader(parentNum)
		if err != nil {
			return err
		}
		if found && parent.Commitment() != h.PrevBlockCommitment() {
			return fmt.Errorf("block %d prev commitment %s, stored parent %s", h.BlockNum(), h.PrevBlockCommitment(), parent.Commitment())
		}
	}
	if err := cs.kv.Put(headerKey(h.BlockNum()), h.Bytes()); err != nil {
		return err
	}
	if err := cs.kv.Put(commitmentKey(h.Commitment()), common.Uint32ToBytes(uint32(h.BlockNum()))); err != nil {
		return err
	}
	latest, found, err := cs.LatestBlockNum()
	if err != nil {
		return err
	}
	if !found || h.BlockNum() > latest {
		if err := cs.kv.Put(latestKey, common.Uint32ToBytes(uint32(h.BlockNum()))); err != nil {
			return err
		}
	}
	cs.cache.Add(h.BlockNum(), h)
	log.Debug(log.StorageMonitoring, "header stored", "block", h.BlockNum(), "commitment", h.Commitment())
	return nil
}

func (cs *ChainStore) GetHeader(n types.BlockNumber) (*types.BlockHeader, bool, error) {
	if h, ok := cs.cache.Get(n); ok {
		return h, true, nil
	}
	data, found, err := cs.kv.Get(headerKey(n))
	if err != nil || !found {
		return nil, false, err
	}
	h, err := types.BlockHeaderFromBytes(data)
	if err != nil {
		return nil, false, fmt.Errorf("block %d: %w", n, err)
	}
	cs.cache.Add(n, h)
	return h, true, nil
}

func (cs *ChainStore) GetHeaderByCommitment(c common.Word) (*types.BlockHeader, bool, error) {
	data, found, err := cs.kv.Get(commitmentKey(c))
	if err != nil || !found {
		return nil, false, err
	}
	return cs.GetHeader(types.BlockNumber(common.BytesToUint32(data)))
}

// LatestBlockNum returns the highest stored block number.
func (cs *ChainStore) LatestBlockNum() (types.BlockNumber, bool, error) {
	data, found, err := cs.kv.Get(latestKey)
	if err != nil || !found {
		return 0, false, err
	}
	return types.BlockNumber(common.BytesToUint32(data)), true, nil
}

// Headers returns the stored headers in [from, to], stopping at the first gap.
func (cs *ChainStore) Headers(from, to types.BlockNumber) ([]*types.BlockHeader, error) {
	var out []*types.BlockHeader
	for n := from; n <= to; n++ {
		h, found, err := cs.GetHeader(n)
		if err != nil {
			return nil, err
		}
		if !found {
			break
		}
		out = append(out, h)
		if n == ^types.BlockNumber(0) {
			break
		}
	}
	return out, nil
}

// AllHeaders returns every stored header in block order.
func (cs *ChainStore) AllHeaders() ([]*types.BlockHeader, error) {
	kvs, err := cs.kv.GetWithPrefix(headerPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]*types.BlockHeader, 0, len(kvs))
	for _, kv := range kvs {
		h, err := types.BlockHeaderFromBytes(kv[1])
		if err != nil {
			return nil, fmt.Errorf("key %x: %w", kv[0], err)
		}
		out = append(out, h)
	}
	return out, nil
}

func (cs *ChainStore) Close() error {
	cs.cache.Purge()
	return cs.kv.Close()
}
