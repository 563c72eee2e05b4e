package algo

import "github.com/huangsam/riskscan/schema"

// NeutralRisk is used when a sub-score has no data to judge.
const NeutralRisk = 3

// VelocityRisk maps a velocity ratio to a 1..5 risk sub-score.
func VelocityRisk(ratio float64) int {
	switch {
	case ratio < 0.25:
		return 5
	case ratio < 0.5:
		return 4
	case ratio < 0.75:
		return 3
	case ratio < 1.0:
		return 2
	default:
		return 1
	}
}

// GiniRisk maps a Gini coefficient to a 1..5 risk sub-score. Nil is neutral.
func GiniRisk(gini *float64) int {
	if gini == nil {
		return NeutralRisk
	}
	g := *gini
	switch {
	case g > 0.85:
		return 5
	case g > 0.75:
		return 4
	case g > 0.6:
		return 3
	case g > 0.4:
		return 2
	default:
		return 1
	}
}

// ConcentrationRisk maps the top-1 and top-3 contributor shares to a 1..5
// risk sub-score. Either share being nil is neutral.
func ConcentrationRisk(top1, top3 *float64) int {
	if top1 == nil || top3 == nil {
		return NeutralRisk
	}
	t1, t3 := *top1, *top3
	switch {
	case t1 > 0.5 || t3 > 0.8:
		return 5
	case t1 > 0.4 || t3 > 0.7:
		return 4
	case t1 > 0.3 || t3 > 0.6:
		return 3
	case t1 > 0.2 || t3 > 0.5:
		return 2
	default:
		return 1
	}
}

// BusFactorRisk averages the Gini and concentration sub-scores.
func BusFactorRisk(giniRisk, concentrationRisk int) float64 {
	return float64(giniRisk+concentrationRisk) / 2
}

// CategorizeRisk maps a total risk score (1..10) to its level.
func CategorizeRisk(score float64) schema.RiskLevel {
	switch {
	case score >= 8:
		return schema.RiskCritical
	case score >= 6:
		return schema.RiskHigh
	case score >= 4:
		return schema.RiskMedium
	default:
		return schema.RiskLow
	}
}
