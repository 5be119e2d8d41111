// Package cache memoizes generated answers in memory.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// Cache stores values of one type under string keys
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration) bool
	Delete(key string)
	Clear()
	Stats() Stats
}

// Stats reports cache effectiveness since creation or the last Clear
type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// HitRatio returns hits over lookups, or 0 before any lookup
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Key derives a cache key from its parts. Parts are length-prefixed so
// ("ab", "c") and ("a", "bc") never collide.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		var n [8]byte
		binary.LittleEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write([]byte(p))
	}
	return "globechat:v1:" + hex.EncodeToString(h.Sum(nil))
}
