// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package themes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func unit(deg float64) []float32 {
	rad := deg * math.Pi / 180
	return []float32{float32(math.Cos(rad)), float32(math.Sin(rad))}
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0, CosineDistance([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 1, CosineDistance([]float32{1, 0}, []float32{0, 3}), 1e-9)
	assert.InDelta(t, 2, CosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 1.0, CosineDistance([]float32{0, 0}, []float32{0, 0}))
	assert.Equal(t, 1.0, CosineDistance([]float32{1}, []float32{1, 0}))
}

func TestDBSCANTwoClustersAndNoise(t *testing.T) {
	points := [][]float32{
		unit(90), unit(0), unit(95), unit(5), unit(-5), unit(225),
	}
	labels := DBSCAN(points, 0.5, 2)
	assert.Equal(t, []int{0, 1, 0, 1, 1, Noise}, labels)
}

func TestDBSCANBorderPoint(t *testing.T) {
	// 65 degrees sees only 10 degrees and itself, so it is not core but joins
	// the cluster through 10. 130 and 180 see only each other.
	points := [][]float32{unit(0), unit(10), unit(-10), unit(65), unit(130), unit(180)}
	labels := DBSCAN(points, 0.5, 3)
	assert.Equal(t, []int{0, 0, 0, 0, Noise, Noise}, labels)
}

func TestDBSCANMinPointsOne(t *testing.T) {
	points := [][]float32{unit(0), unit(90), unit(180)}
	assert.Equal(t, []int{0, 1, 2}, DBSCAN(points, 0.5, 1))
}

func TestDBSCANZeroVectorIsNoise(t *testing.T) {
	points := [][]float32{{0, 0}, unit(0), unit(1)}
	assert.Equal(t, []int{Noise, 0, 0}, DBSCAN(points, 0.5, 2))
}

func TestDBSCANEmpty(t *testing.T) {
	assert.Empty(t, DBSCAN(nil, 0.5, 2))
}

func TestKeywords(t *testing.T) {
	texts := []string{
		"Urban density reduces obesity risk",
		"Higher urban density linked to lower obesity",
		"Urban density associated with obesity decline",
	}
	assert.Equal(t, []string{"urban", "density", "obesity"}, Keywords(texts, 3))
	assert.Equal(t, "Urban + Density + Obesity", SuggestName(texts))
}

func TestKeywordsTiesKeepEncounterOrder(t *testing.T) {
	assert.Equal(t, []string{"walking", "cycling", "transit"},
		Keywords([]string{"Walking, cycling, transit and buses"}, 3))
}

func TestKeywordsIgnoreShortWordsAndPunctuation(t *testing.T) {
	assert.Equal(t, []string{"food", "deserts"}, Keywords([]string{"Food deserts: a big, bad gap (n=12)"}, 3))
	assert.Equal(t, "", SuggestName([]string{"a b c", "12345"}))
}

func TestKeywordsSkipAccentedWordsWhole(t *testing.T) {
	assert.Equal(t, []string{"residents", "walk", "more"},
		Keywords([]string{"Residents of Zürich walk more", "Zürich commuters cycle"}, 3))
	assert.Equal(t, "Survey + Design + Again",
		SuggestName([]string{"naïvety of survey design", "naïvety again"}))
	assert.Equal(t, []string{"walk"}, Keywords([]string{"walk_score café walk"}, 3))
}
