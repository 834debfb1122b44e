// Package rng provides the deterministic float stream that drives
// scenario generation. The same (seed, nonce) pair always yields the
// same sequence, so a roll can be reproduced exactly from its seed.
package rng

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
)

// Stream generates bytes using HMAC-SHA256 keyed by the seed, hashing
// "nonce:round" messages. Bytes are consumed 32 at a time per round.
type Stream struct {
	seed         string
	nonce        uint64
	currentRound uint64
	currentPos   int
	buffer       [32]byte
}

// NewStream creates a stream for the given seed and nonce.
func NewStream(seed string, nonce uint64) *Stream {
	s := &Stream{seed: seed, nonce: nonce}
	s.generateRound()
	return s
}

// NextByte returns the next byte from the stream.
func (s *Stream) NextByte() byte {
	if s.currentPos >= 32 {
		s.currentRound++
		s.currentPos = 0
		s.generateRound()
	}
	b := s.buffer[s.currentPos]
	s.currentPos++
	return b
}

// NextFloat generates the next float in [0,1) using exactly 4 bytes.
func (s *Stream) NextFloat() float64 {
	result := 0.0
	for i := 0; i < 4; i++ {
		divider := math.Pow(256, float64(i+1))
		result += float64(s.NextByte()) / divider
	}
	return result
}

// NextInRange returns a float in [lo, hi).
func (s *Stream) NextInRange(lo, hi float64) float64 {
	return lo + s.NextFloat()*(hi-lo)
}

// NextAngle returns an angle in [0, 2π).
func (s *Stream) NextAngle() float64 {
	return s.NextFloat() * 2 * math.Pi
}

func (s *Stream) generateRound() {
	h := hmac.New(sha256.New, []byte(s.seed))
	fmt.Fprintf(h, "%d:%d", s.nonce, s.currentRound)
	copy(s.buffer[:], h.Sum(nil))
}

// Floats generates count floats starting from a fresh stream.
func Floats(seed string, nonce uint64, count int) []float64 {
	s := NewStream(seed, nonce)
	floats := make([]float64, count)
	for i := range floats {
		floats[i] = s.NextFloat()
	}
	return floats
}

// RandomSeed draws an unpredictable seed string from the OS entropy
// source, for rolls where the caller supplied none.
func RandomSeed() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is unrecoverable in practice; an empty
		// seed still produces a valid (if guessable) stream.
		return "fallback"
	}
	return hex.EncodeToString(buf[:])
}
