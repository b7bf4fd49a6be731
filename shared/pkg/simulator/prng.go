package simulator

import (
	"strings"
	"unicode/utf16"
)

// HashSeed folds a game identifier into a 32-bit seed using xmur3 mixing over
// the identifier's UTF-16 code units, so seeds match across implementations.
func HashSeed(id string) uint32 {
	units := utf16.Encode([]rune(id))
	h := uint32(1779033703) ^ uint32(len(units))
	for _, u := range units {
		h = (h ^ uint32(u)) * 3432918353
		h = h<<13 | h>>19
	}
	return h
}

// Mulberry32 is a small counter-based 32-bit generator. A value is not safe
// for concurrent use; every simulation owns its own instance.
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 creates a generator from a 32-bit seed
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// NewGameRNG seeds a generator from a game identifier
func NewGameRNG(gameID string) (*Mulberry32, error) {
	if strings.TrimSpace(gameID) == "" {
		return nil, ErrMissingGameID
	}
	return NewMulberry32(HashSeed(gameID)), nil
}

// Uint32 advances the generator
func (m *Mulberry32) Uint32() uint32 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return t ^ t>>14
}

// Float64 returns a uniform value in [0, 1)
func (m *Mulberry32) Float64() float64 {
	return float64(m.Uint32()) / 4294967296.0
}
