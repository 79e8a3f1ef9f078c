package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistanceZero(t *testing.T) {
	assert.Zero(t, HaversineDistance(-23.55, -46.63, -23.55, -46.63))
}

func TestHaversineDistanceKnownPair(t *testing.T) {
	// Sao Paulo to Rio de Janeiro, roughly 360km.
	d := HaversineDistance(-23.5505, -46.6333, -22.9068, -43.1729)
	assert.InDelta(t, 360, d, 10)
}

func TestHaversineDistanceSymmetric(t *testing.T) {
	a := HaversineDistance(10, 20, 30, 40)
	b := HaversineDistance(30, 40, 10, 20)
	assert.InDelta(t, a, b, 1e-9)
}
