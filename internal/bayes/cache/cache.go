package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes"
)

// LRU caches compiled networks by the sha256 of their source. Concurrent
// misses for the same source share one compilation; failed compilations are
// not cached.
type LRU struct {
	items *lru.Cache[string, *bayes.Network]
	group singleflight.Group
}

func NewLRU(max int) (*LRU, error) {
	if max <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", max)
	}
	items, err := lru.New[string, *bayes.Network](max)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &LRU{items: items}, nil
}

func (c *LRU) GetOrCompute(source string, fn func() (*bayes.Network, error)) (*bayes.Network, error) {
	key := Hash(source)
	if n, ok := c.items.Get(key); ok {
		return n, nil
	}

	v, err, _ := c.group.Do(key, func() (out any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("network compilation panicked: %v", r)
			}
		}()

		if n, ok := c.items.Get(key); ok {
			return n, nil
		}
		n, err := fn()
		if err != nil {
			return nil, err
		}
		c.items.Add(key, n)
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*bayes.Network), nil
}

func (c *LRU) Len() int { return c.items.Len() }

// Hash is the cache key of a network source, also reported to clients as
// the network hash.
func Hash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}
