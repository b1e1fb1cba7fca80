// Package store caches the results of resampling iterations, in memory or on disk, so that an interrupted or
// repeated experiment does not train the same learner on the same rows twice.
package store

import (
	"bytes"
	"encoding/gob"
	"errors"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru"
	"github.com/hscells/resample/iteration"
	"github.com/peterbourgon/diskv"
	"strings"
	"sync"
)

// ErrCacheMiss is returned when a key has no result.
var ErrCacheMiss = errors.New("cache miss")

// Key derives a stable cache key from the parts identifying an iteration.
func Key(parts ...string) string {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(parts, "\x00")))
	return strings.Replace(id.String(), "-", "", -1)
}

// BlockTransform determines how diskv should partition folders.
func BlockTransform(blockSize int) func(string) []string {
	return func(s string) []string {
		var (
			sliceSize = len(s) / blockSize
			pathSlice = make([]string, sliceSize)
		)
		for i := 0; i < sliceSize; i++ {
			from, to := i*blockSize, (i*blockSize)+blockSize
			pathSlice[i] = s[from:to]
		}
		return pathSlice
	}
}

// ResultToBytes encodes an iteration result. The concrete types of algorithms and models must be registered
// with gob.
func ResultToBytes(res iteration.Result) ([]byte, error) {
	var buff bytes.Buffer
	enc := gob.NewEncoder(&buff)
	err := enc.Encode(res)
	if err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// ResultFromBytes decodes an iteration result.
func ResultFromBytes(b []byte) (iteration.Result, error) {
	var res iteration.Result
	dec := gob.NewDecoder(bytes.NewReader(b))
	err := dec.Decode(&res)
	return res, err
}

// ResultCacher models a way to cache (either persistent or not) iteration results.
type ResultCacher interface {
	Get(key string) (iteration.Result, error)
	Set(key string, res iteration.Result) error
}

// ResultCache embeds a privately defined result cacher into a public struct.
type ResultCache struct {
	ResultCacher
}

type mapResultCache struct {
	mu sync.RWMutex
	m  map[string]iteration.Result
}

func (m *mapResultCache) Get(key string) (iteration.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.m[key]; ok {
		return r, nil
	}
	return iteration.Result{}, ErrCacheMiss
}

func (m *mapResultCache) Set(key string, res iteration.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[key] = res
	return nil
}

// NewMapCache creates a result cache out of a regular go map.
func NewMapCache() ResultCache {
	return ResultCache{&mapResultCache{m: make(map[string]iteration.Result)}}
}

type lruResultCache struct {
	*lru.Cache
}

func (l lruResultCache) Get(key string) (iteration.Result, error) {
	if v, ok := l.Cache.Get(key); ok {
		return v.(iteration.Result), nil
	}
	return iteration.Result{}, ErrCacheMiss
}

func (l lruResultCache) Set(key string, res iteration.Result) error {
	l.Cache.Add(key, res)
	return nil
}

// NewLRUCache creates an in-memory cache holding at most size results.
func NewLRUCache(size int) (ResultCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return ResultCache{}, err
	}
	return ResultCache{lruResultCache{c}}, nil
}

type diskvResultCache struct {
	*diskv.Diskv
}

func (d diskvResultCache) Get(key string) (iteration.Result, error) {
	b, err := d.Read(key)
	if err != nil {
		return iteration.Result{}, ErrCacheMiss
	}
	return ResultFromBytes(b)
}

func (d diskvResultCache) Set(key string, res iteration.Result) error {
	b, err := ResultToBytes(res)
	if err != nil {
		return err
	}
	return d.Write(key, b)
}

// NewDiskvCache creates a new on-disk cache with the specified diskv parameters.
func NewDiskvCache(dv *diskv.Diskv) ResultCache {
	return ResultCache{diskvResultCache{dv}}
}

// NewDiskv creates a diskv store under path that keeps up to cacheSize bytes in memory.
func NewDiskv(path string, cacheSize uint64) *diskv.Diskv {
	return diskv.New(diskv.Options{
		BasePath:     path,
		Transform:    BlockTransform(8),
		CacheSizeMax: cacheSize,
	})
}

type tieredResultCache struct {
	front, back ResultCacher
}

func (t tieredResultCache) Get(key string) (iteration.Result, error) {
	if r, err := t.front.Get(key); err == nil {
		return r, nil
	}
	r, err := t.back.Get(key)
	if err != nil {
		return iteration.Result{}, err
	}
	return r, t.front.Set(key, r)
}

func (t tieredResultCache) Set(key string, res iteration.Result) error {
	if err := t.back.Set(key, res); err != nil {
		return err
	}
	return t.front.Set(key, res)
}

// NewTieredCache reads from front before back and promotes results found only in back. Results are written to
// both.
func NewTieredCache(front, back ResultCacher) ResultCache {
	return ResultCache{tieredResultCache{front: front, back: back}}
}
