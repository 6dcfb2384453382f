package service

import (
	"math"
	"strings"

	"pulmoscan/internal/model"
)

// NormalizeTwoClass reprojects a two-class {NORMAL, PNEUMONIA} score
// pair onto the three-class clinical taxonomy. Pneumonia and lung
// opacity overlap clinically, so high pneumonia scores trade part of
// their weight into the opacity class. The tier thresholds and split
// factors are calibrated against the upstream models and must not be
// changed without re-validating outputs.
//
// Pure and deterministic over any pair of non-negative finite inputs.
func NormalizeTwoClass(scores []model.RawScore) model.Distribution {
	normalProb := 0.5
	pneumoniaProb := 0.5
	for _, s := range scores {
		switch strings.ToUpper(s.Label) {
		case "NORMAL":
			normalProb = s.Score
		case "PNEUMONIA":
			pneumoniaProb = s.Score
		}
	}

	total := normalProb + pneumoniaProb
	if total == 0 {
		total = 1.0
	}
	normalProb /= total
	pneumoniaProb /= total

	var lungOpacityProb float64
	switch {
	case pneumoniaProb > 0.6:
		lungOpacityProb = pneumoniaProb * 0.3
		pneumoniaProb = pneumoniaProb * 0.7
	case pneumoniaProb > 0.4:
		lungOpacityProb = pneumoniaProb * 0.2
		pneumoniaProb = pneumoniaProb * 0.8
	default:
		lungOpacityProb = 0.05
		normalProb = math.Max(0, normalProb-0.05)
	}

	dist := model.Distribution{
		model.ClassNormal:      round4(normalProb),
		model.ClassPneumonia:   round4(pneumoniaProb),
		model.ClassLungOpacity: round4(lungOpacityProb),
	}
	return renormalize(dist)
}

// NormalizeMultiClass shapes native three-class scores into a
// well-formed distribution: round to 4 places, then renormalize so the
// values sum to exactly 1. Labels are matched case-insensitively;
// classes the backend omitted stay at 0.
func NormalizeMultiClass(scores []model.RawScore) model.Distribution {
	dist := model.Distribution{}
	for _, c := range model.Classes {
		dist[c] = 0
	}
	for _, s := range scores {
		for _, c := range model.Classes {
			if strings.EqualFold(s.Label, string(c)) {
				dist[c] = round4(s.Score)
			}
		}
	}
	return renormalize(dist)
}

func renormalize(dist model.Distribution) model.Distribution {
	var sum float64
	for _, v := range dist {
		sum += v
	}
	if sum == 0 {
		sum = 1.0
	}
	out := model.Distribution{}
	for c, v := range dist {
		out[c] = round4(v / sum)
	}
	return out
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
