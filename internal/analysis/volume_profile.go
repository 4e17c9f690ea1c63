package analysis

import (
	"sort"

	"github.com/ivstanko/cryptoscan/internal/models"
)

// VolumeProfile buckets traded volume into numLevels price bands and
// reports the point of control, the volume-weighted point of control
// and the top-volume price levels. Fewer than 10 candles or a flat
// price range yields an empty profile.
func VolumeProfile(candles models.Candles, numLevels int) models.VolumeProfile {
	empty := models.VolumeProfile{HighVolumeLevels: []float64{}}
	if numLevels <= 0 || len(candles) < 10 {
		return empty
	}

	priceMin := candles[0].Low
	priceMax := candles[0].High
	for _, c := range candles {
		if c.Low < priceMin {
			priceMin = c.Low
		}
		if c.High > priceMax {
			priceMax = c.High
		}
	}

	priceRange := priceMax - priceMin
	if priceRange == 0 {
		return empty
	}

	levelSize := priceRange / float64(numLevels)
	volumeByLevel := make(map[int]float64)

	for _, c := range candles {
		startLevel := int((c.Low - priceMin) / levelSize)
		endLevel := int((c.High - priceMin) / levelSize)
		span := float64(endLevel - startLevel + 1)
		for level := startLevel; level <= endLevel; level++ {
			if level >= 0 && level < numLevels {
				volumeByLevel[level] += c.Volume / span
			}
		}
	}
	if len(volumeByLevel) == 0 {
		return empty
	}

	levelPrice := func(level int) float64 {
		return priceMin + float64(level)*levelSize + levelSize/2
	}

	type levelVolume struct {
		level  int
		volume float64
	}
	sorted := make([]levelVolume, 0, len(volumeByLevel))
	totalVolume := 0.0
	weightedSum := 0.0
	for level, vol := range volumeByLevel {
		sorted = append(sorted, levelVolume{level: level, volume: vol})
		totalVolume += vol
		weightedSum += levelPrice(level) * vol
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].volume == sorted[j].volume {
			return sorted[i].level < sorted[j].level
		}
		return sorted[i].volume > sorted[j].volume
	})

	poc := levelPrice(sorted[0].level)
	vpoc := poc
	if totalVolume > 0 {
		vpoc = weightedSum / totalVolume
	}

	topCount := numLevels / 5
	if topCount < 3 {
		topCount = 3
	}
	if topCount > len(sorted) {
		topCount = len(sorted)
	}
	highVolumeLevels := make([]float64, 0, topCount)
	for _, lv := range sorted[:topCount] {
		highVolumeLevels = append(highVolumeLevels, levelPrice(lv.level))
	}

	return models.VolumeProfile{
		POC:              &poc,
		VPOC:             &vpoc,
		HighVolumeLevels: highVolumeLevels,
	}
}
