package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImpactFromWaste(t *testing.T) {
	report := ImpactFromWaste(1000)

	assert.Equal(t, 20, report.TreesSaved)
	assert.Equal(t, 5000, report.WaterSaved)
	assert.Equal(t, 350, report.EnergySaved)
	assert.Equal(t, 130, report.CarbonSaved)
}

func TestImpactFromWasteZero(t *testing.T) {
	report := ImpactFromWaste(0)

	assert.Zero(t, report.TreesSaved)
	assert.Zero(t, report.WaterSaved)
	assert.Zero(t, report.EnergySaved)
	assert.Zero(t, report.CarbonSaved)
}

func TestImpactFromWasteRoundsDown(t *testing.T) {
	// 70kg yields 1.4 trees, reported as 1.
	report := ImpactFromWaste(70)

	assert.Equal(t, 1, report.TreesSaved)
	assert.Equal(t, 350, report.WaterSaved)
	assert.Equal(t, 24, report.EnergySaved)
	assert.Equal(t, 9, report.CarbonSaved)
}
