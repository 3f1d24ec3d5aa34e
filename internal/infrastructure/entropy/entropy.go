// Package entropy supplies seed material for fee-attribution hashes.
package entropy

import (
	"crypto/rand"
	"sync"
)

// CryptoSource draws seeds from the operating system's entropy pool.
type CryptoSource struct{}

// NewCryptoSource creates a CryptoSource.
func NewCryptoSource() *CryptoSource {
	return &CryptoSource{}
}

// Seed returns 32 bytes of fresh entropy.
func (CryptoSource) Seed() [32]byte {
	var seed [32]byte
	// rand.Read on crypto/rand never fails on supported platforms.
	_, _ = rand.Read(seed[:])
	return seed
}

// FixedSource always returns the same seed. Used in tests where hash
// attribution must be reproducible.
type FixedSource struct {
	mu   sync.Mutex
	seed [32]byte
}

// NewFixedSource creates a FixedSource with the given seed.
func NewFixedSource(seed [32]byte) *FixedSource {
	return &FixedSource{seed: seed}
}

// Seed returns the fixed seed.
func (f *FixedSource) Seed() [32]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seed
}

// SetSeed replaces the fixed seed.
func (f *FixedSource) SetSeed(seed [32]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seed = seed
}
