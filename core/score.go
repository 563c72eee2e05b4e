package core

import (
	"github.com/huangsam/riskscan/core/algo"
	"github.com/huangsam/riskscan/schema"
)

// ScoreRecords turns merged activity records into scored repositories.
// Records without a weekly commit series are left out, since activity is the
// one mandatory signal. Contributor columns stay nil unless the contributor
// fetch succeeded, so "no data" never reads as "well distributed".
// The result is ordered by total risk score, highest first, with ties in
// input order.
func ScoreRecords(records []schema.ActivityRecord) []schema.ScoredRepo {
	scored := make([]schema.ScoredRepo, 0, len(records))
	for _, rec := range records {
		if !rec.ActivityAvailable() {
			continue
		}
		scored = append(scored, scoreRecord(rec))
	}
	return algo.RankByRisk(scored)
}

// scoreRecord computes every derived column for a single record.
func scoreRecord(rec schema.ActivityRecord) schema.ScoredRepo {
	total, recent, older := algo.WindowSums(rec.WeeklyCommits)
	velocity := algo.VelocityRatio(recent, older)

	out := schema.ScoredRepo{
		Repo:          rec.Repo.Identifier,
		Language:      rec.Repo.Language,
		Registry:      schema.NoRegistry,
		TotalCommits:  total,
		RecentCommits: recent,
		OlderCommits:  older,
		VelocityRatio: velocity,
	}
	if out.Language == "" {
		out.Language = schema.UnknownLanguage
	}
	if meta := rec.Repo.Package; meta != nil {
		out.PackageName = meta.PackageName
		out.Popularity = meta.Popularity
		if meta.Registry != "" {
			out.Registry = meta.Registry
		}
	}

	out.ContributorDataAvailable = rec.ContributorDataAvailable()
	if out.ContributorDataAvailable && len(rec.Contributions) > 0 {
		top1, top3 := algo.TopShares(rec.Contributions)
		out.GiniCoefficient = schema.Float64Ptr(algo.Gini(rec.Contributions))
		out.Top1Share = schema.Float64Ptr(top1)
		out.Top3Share = schema.Float64Ptr(top3)
		out.ContributorCount = schema.IntPtr(len(rec.Contributions))
	}

	out.RiskVelocity = algo.VelocityRisk(velocity)
	out.RiskGini = algo.GiniRisk(out.GiniCoefficient)
	out.RiskConcentration = algo.ConcentrationRisk(out.Top1Share, out.Top3Share)
	out.RiskBusFactor = algo.BusFactorRisk(out.RiskGini, out.RiskConcentration)
	out.TotalRiskScore = float64(out.RiskVelocity) + out.RiskBusFactor
	out.RiskLevel = algo.CategorizeRisk(out.TotalRiskScore)

	return out
}

// countUnavailable counts records missing at least one signal.
func countUnavailable(records []schema.ActivityRecord) int {
	n := 0
	for _, rec := range records {
		if !rec.DataComplete() {
			n++
		}
	}
	return n
}
