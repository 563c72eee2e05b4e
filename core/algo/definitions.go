package algo

import (
	"fmt"

	"github.com/huangsam/riskscan/schema"
)

// Definitions describes every scoring component with the constants in use.
func Definitions() []schema.MetricDefinition {
	return []schema.MetricDefinition{
		{
			Name:        "velocity_ratio",
			Description: "Recent commit activity compared with activity a year ago. Below 1 means decline.",
			Formula:     fmt.Sprintf("sum(last %d weeks) / (sum(first %d weeks) + %g)", RecentWeeks, OlderWeeks, VelocityEpsilon),
			Buckets:     []string{"<0.25 -> 5", "<0.5 -> 4", "<0.75 -> 3", "<1.0 -> 2", "else -> 1"},
		},
		{
			Name:        "gini_coefficient",
			Description: "Inequality of commits across contributors. No contributors, no commits or one contributor is 1.0.",
			Formula:     "2*sum((i+1)*x_i) / (n*total) - (n+1)/n over ascending totals, clamped to [0,1]",
			Buckets:     []string{"unavailable -> 3", ">0.85 -> 5", ">0.75 -> 4", ">0.6 -> 3", ">0.4 -> 2", "else -> 1"},
		},
		{
			Name:        "concentration",
			Description: "Share of commits made by the top contributor and the top three contributors.",
			Formula:     "top1 = max/total, top3 = sum(three largest)/total",
			Buckets: []string{
				"unavailable -> 3",
				"top1>0.5 or top3>0.8 -> 5",
				"top1>0.4 or top3>0.7 -> 4",
				"top1>0.3 or top3>0.6 -> 3",
				"top1>0.2 or top3>0.5 -> 2",
				"else -> 1",
			},
		},
		{
			Name:        "bus_factor",
			Description: "How much the project depends on very few people.",
			Formula:     "(gini_risk + concentration_risk) / 2",
		},
		{
			Name:        "total_risk_score",
			Description: "Composite maintainer risk on a 1 to 10 scale.",
			Formula:     "velocity_risk + bus_factor_risk",
			Buckets: []string{
				fmt.Sprintf(">=8 -> %s", schema.RiskCritical),
				fmt.Sprintf(">=6 -> %s", schema.RiskHigh),
				fmt.Sprintf(">=4 -> %s", schema.RiskMedium),
				fmt.Sprintf("else -> %s", schema.RiskLow),
			},
		},
	}
}
