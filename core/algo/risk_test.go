package algo

import (
	"testing"

	"github.com/huangsam/riskscan/schema"
	"github.com/stretchr/testify/assert"
)

func TestVelocityRisk(t *testing.T) {
	tests := []struct {
		ratio    float64
		expected int
	}{
		{0, 5},
		{0.2499, 5},
		{0.25, 4},
		{0.4999, 4},
		{0.5, 3},
		{0.75, 2},
		{0.9999, 2},
		{1.0, 1},
		{12.5, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, VelocityRisk(tt.ratio), "ratio %v", tt.ratio)
	}
}

func TestGiniRisk(t *testing.T) {
	tests := []struct {
		name     string
		gini     *float64
		expected int
	}{
		{"missing", nil, 3},
		{"above 0.85", schema.Float64Ptr(0.9), 5},
		{"exactly 0.85", schema.Float64Ptr(0.85), 4},
		{"above 0.75", schema.Float64Ptr(0.8), 4},
		{"above 0.6", schema.Float64Ptr(0.61), 3},
		{"exactly 0.6", schema.Float64Ptr(0.6), 2},
		{"above 0.4", schema.Float64Ptr(0.5), 2},
		{"low", schema.Float64Ptr(0.1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GiniRisk(tt.gini))
		})
	}
}

func TestConcentrationRisk(t *testing.T) {
	tests := []struct {
		name     string
		top1     *float64
		top3     *float64
		expected int
	}{
		{"both missing", nil, nil, 3},
		{"top3 missing", schema.Float64Ptr(0.9), nil, 3},
		{"top1 dominates", schema.Float64Ptr(0.51), schema.Float64Ptr(0.6), 5},
		{"top3 dominates", schema.Float64Ptr(0.1), schema.Float64Ptr(0.81), 5},
		{"tier four", schema.Float64Ptr(0.41), schema.Float64Ptr(0.5), 4},
		{"tier three", schema.Float64Ptr(0.25), schema.Float64Ptr(0.65), 3},
		{"tier two", schema.Float64Ptr(0.21), schema.Float64Ptr(0.3), 2},
		{"well distributed", schema.Float64Ptr(0.1), schema.Float64Ptr(0.3), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ConcentrationRisk(tt.top1, tt.top3))
		})
	}
}

func TestConcentrationRiskMonotonicInTop1(t *testing.T) {
	for _, top3 := range []float64{0.0, 0.45, 0.55, 0.65, 0.75, 0.85} {
		prev := 0
		for step := 0; step <= 100; step++ {
			top1 := float64(step) / 100
			risk := ConcentrationRisk(schema.Float64Ptr(top1), schema.Float64Ptr(top3))
			assert.GreaterOrEqual(t, risk, prev, "top1=%v top3=%v", top1, top3)
			prev = risk
		}
	}
}

func TestBusFactorRisk(t *testing.T) {
	assert.Equal(t, 3.5, BusFactorRisk(2, 5))
	assert.Equal(t, 3.0, BusFactorRisk(3, 3))
}

func TestCategorizeRisk(t *testing.T) {
	tests := []struct {
		score    float64
		expected schema.RiskLevel
	}{
		{10, schema.RiskCritical},
		{8, schema.RiskCritical},
		{7.5, schema.RiskHigh},
		{6, schema.RiskHigh},
		{5.5, schema.RiskMedium},
		{4, schema.RiskMedium},
		{3.5, schema.RiskLow},
		{1, schema.RiskLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, CategorizeRisk(tt.score), "score %v", tt.score)
	}
}

func TestDefinitionsCoverEveryComponent(t *testing.T) {
	defs := Definitions()
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		assert.NotEmpty(t, d.Formula, d.Name)
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"velocity_ratio", "gini_coefficient", "concentration", "bus_factor", "total_risk_score"}, names)
	assert.Contains(t, defs[0].Formula, "last 13 weeks")
	assert.Contains(t, defs[0].Formula, "0.001")
}
