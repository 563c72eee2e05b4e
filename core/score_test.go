package core

import (
	"slices"
	"testing"

	"github.com/huangsam/riskscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// weeks builds a weekly series of count weeks all equal to v.
func weeks(v, count int) []int {
	return slices.Repeat([]int{v}, count)
}

// record builds a record with both signals fetched.
func record(id string, weekly, contributions []int) schema.ActivityRecord {
	return schema.ActivityRecord{
		Repo:          schema.NewRepoRef(id, "Go"),
		WeeklyCommits: weekly,
		Activity:      schema.Succeeded(200),
		Contributions: contributions,
		Contributors:  schema.Succeeded(200),
	}
}

func TestScoreRecordsDecliningConcentratedRepo(t *testing.T) {
	weekly := append(weeks(5, 39), weeks(1, 13)...)
	out := ScoreRecords([]schema.ActivityRecord{record("octo/widget", weekly, []int{90, 5, 5})})
	require.Len(t, out, 1)
	r := out[0]

	assert.Equal(t, "octo/widget", r.Repo)
	assert.Equal(t, 208, r.TotalCommits)
	assert.Equal(t, 13, r.RecentCommits)
	assert.Equal(t, 65, r.OlderCommits)
	assert.InDelta(t, 0.19999, r.VelocityRatio, 0.0001)
	assert.Equal(t, 5, r.RiskVelocity)

	require.NotNil(t, r.GiniCoefficient)
	assert.InDelta(t, 0.5667, *r.GiniCoefficient, 0.0001)
	assert.Equal(t, 2, r.RiskGini)

	require.NotNil(t, r.Top1Share)
	require.NotNil(t, r.Top3Share)
	assert.InDelta(t, 0.9, *r.Top1Share, 1e-9)
	assert.InDelta(t, 1.0, *r.Top3Share, 1e-9)
	assert.Equal(t, 5, r.RiskConcentration)

	require.NotNil(t, r.ContributorCount)
	assert.Equal(t, 3, *r.ContributorCount)
	assert.True(t, r.ContributorDataAvailable)
	assert.InDelta(t, 3.5, r.RiskBusFactor, 1e-9)
	assert.InDelta(t, 8.5, r.TotalRiskScore, 1e-9)
	assert.Equal(t, schema.RiskCritical, r.RiskLevel)
	assert.Equal(t, schema.NoRegistry, r.Registry)
}

func TestScoreRecordsSkipsMissingActivity(t *testing.T) {
	missing := record("octo/gone", nil, []int{1})
	missing.Activity = schema.Failed(schema.FetchNotFound, 404, nil)
	pending := record("octo/pending", nil, nil)
	pending.Activity = schema.Failed(schema.FetchPendingCalculation, 202, nil)

	out := ScoreRecords([]schema.ActivityRecord{missing, record("octo/ok", weeks(2, 52), []int{3, 3}), pending})
	require.Len(t, out, 1)
	assert.Equal(t, "octo/ok", out[0].Repo)
}

func TestScoreRecordsWithoutContributorData(t *testing.T) {
	rec := record("octo/nocontrib", weeks(2, 52), nil)
	rec.Contributors = schema.Failed(schema.FetchRateLimited, 403, nil)

	out := ScoreRecords([]schema.ActivityRecord{rec})
	require.Len(t, out, 1)
	r := out[0]

	assert.Nil(t, r.GiniCoefficient)
	assert.Nil(t, r.Top1Share)
	assert.Nil(t, r.Top3Share)
	assert.Nil(t, r.ContributorCount)
	assert.False(t, r.ContributorDataAvailable)
	assert.Equal(t, 3, r.RiskGini)
	assert.Equal(t, 3, r.RiskConcentration)
	assert.InDelta(t, 3.0, r.RiskBusFactor, 1e-9)

	// Flat activity is a ratio just under 1, which is the lowest non-minimal bucket.
	assert.Equal(t, 2, r.RiskVelocity)
	assert.InDelta(t, 5.0, r.TotalRiskScore, 1e-9)
	assert.Equal(t, schema.RiskMedium, r.RiskLevel)
}

func TestScoreRecordsEmptyContributorListIsNeutral(t *testing.T) {
	out := ScoreRecords([]schema.ActivityRecord{record("octo/empty", weeks(2, 52), []int{})})
	require.Len(t, out, 1)
	r := out[0]

	assert.True(t, r.ContributorDataAvailable)
	assert.Nil(t, r.GiniCoefficient)
	assert.Nil(t, r.Top1Share)
	assert.Nil(t, r.Top3Share)
	assert.Nil(t, r.ContributorCount)
	assert.Equal(t, 3, r.RiskGini)
	assert.Equal(t, 3, r.RiskConcentration)

	// Flat activity lands in velocity bucket 2, so the total is 2 + 3.
	assert.Equal(t, 2, r.RiskVelocity)
	assert.InDelta(t, 5.0, r.TotalRiskScore, 1e-9)
	assert.Equal(t, schema.RiskMedium, r.RiskLevel)
}

func TestScoreRecordsCopiesPackageMeta(t *testing.T) {
	rec := record("lodash/lodash", weeks(4, 52), []int{10, 10, 10, 10})
	rec.Repo.Language = "JavaScript"
	rec.Repo.Package = &schema.PackageMeta{Registry: schema.NPMRegistry, PackageName: "lodash", Popularity: 5_000_000}

	out := ScoreRecords([]schema.ActivityRecord{rec})
	require.Len(t, out, 1)
	assert.Equal(t, "lodash", out[0].PackageName)
	assert.Equal(t, int64(5_000_000), out[0].Popularity)
	assert.Equal(t, schema.NPMRegistry, out[0].Registry)
	assert.Equal(t, "JavaScript", out[0].Language)
	assert.InDelta(t, 0.0, *out[0].GiniCoefficient, 1e-9)
	assert.InDelta(t, 0.25, *out[0].Top1Share, 1e-9)
}

func TestScoreRecordsOrdersByRiskWithStableTies(t *testing.T) {
	growing := append(weeks(1, 39), weeks(10, 13)...)
	records := []schema.ActivityRecord{
		record("a/low", growing, []int{10, 10, 10, 10, 10, 10, 10, 10, 10, 10}),
		record("b/tie", weeks(0, 52), []int{1}),
		record("c/tie", weeks(0, 52), []int{7}),
		record("d/mid", weeks(3, 52), nil),
	}
	records[3].Contributors = schema.Failed(schema.FetchNetworkError, 0, nil)

	out := ScoreRecords(records)
	require.Len(t, out, 4)

	var order []string
	for _, r := range out {
		order = append(order, r.Repo)
	}
	assert.Equal(t, []string{"b/tie", "c/tie", "d/mid", "a/low"}, order)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].TotalRiskScore, out[i].TotalRiskScore)
	}
}

func TestScoreRecordsEmptyInput(t *testing.T) {
	assert.Empty(t, ScoreRecords(nil))
}

func TestCountUnavailable(t *testing.T) {
	partial := record("a/b", weeks(1, 52), nil)
	partial.Contributors = schema.Failed(schema.FetchPendingCalculation, 202, nil)
	missing := record("c/d", nil, nil)
	missing.Activity = schema.Failed(schema.FetchNotFound, 404, nil)

	assert.Equal(t, 2, countUnavailable([]schema.ActivityRecord{partial, record("e/f", weeks(1, 52), []int{1}), missing}))
}
