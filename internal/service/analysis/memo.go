package analysis

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/groupcache/lru"

	"github.com/carbonsense/carbonsense/pkg/analyzer/carbon"
)

// memo keeps the most recently used source analyses keyed by an xxhash of
// the text. A size of zero disables it. Results go in and come out as
// copies, so callers may modify what they receive.
type memo struct {
	mu    sync.Mutex
	cache *lru.Cache
}

type memoEntry struct {
	code   string
	result *carbon.Result
}

func newMemo(size int) *memo {
	if size <= 0 {
		return &memo{}
	}
	return &memo{cache: lru.New(size)}
}

func (m *memo) get(code string) (*carbon.Result, bool) {
	if m.cache == nil {
		return nil, false
	}
	key := xxhash.Sum64String(code)

	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false
	}
	e := v.(memoEntry)
	if e.code != code {
		return nil, false
	}
	return e.result.Clone(), true
}

func (m *memo) put(code string, r *carbon.Result) {
	if m.cache == nil {
		return
	}
	key := xxhash.Sum64String(code)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Add(key, memoEntry{code: code, result: r.Clone()})
}

func (m *memo) count() int {
	if m.cache == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Len()
}
