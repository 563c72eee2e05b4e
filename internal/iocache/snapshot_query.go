package iocache

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/riskscan/schema"
)

// levelsAtLeast lists the risk levels at or above floor, lowest first.
func levelsAtLeast(floor schema.RiskLevel) []schema.RiskLevel {
	var out []schema.RiskLevel
	for _, l := range []schema.RiskLevel{schema.RiskLow, schema.RiskMedium, schema.RiskHigh, schema.RiskCritical} {
		if l.AtLeast(floor) {
			out = append(out, l)
		}
	}
	return out
}

// orderClause maps a sort key to ORDER BY. Repos without contributor data sort
// first under the contributors key since they carry the least information.
func orderClause(key schema.SortKey) string {
	switch key {
	case schema.SortByContributors:
		return "CASE WHEN contributor_count IS NULL THEN 0 ELSE 1 END, contributor_count ASC, repo ASC"
	case schema.SortByName:
		return "repo ASC"
	case schema.SortByPopularity:
		return "popularity DESC, repo ASC"
	default:
		return "total_risk_score DESC, repo ASC"
	}
}

// buildListQuery assembles the filtered SELECT for a report read.
func (ss *SnapshotStoreImpl) buildListQuery(query schema.ReportQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	next := func() string { return placeholder(ss.backend, len(args)+1) }

	if query.MinLevel != "" {
		levels := levelsAtLeast(query.MinLevel)
		marks := make([]string, len(levels))
		for i, l := range levels {
			marks[i] = next()
			args = append(args, string(l))
		}
		if len(marks) == 0 {
			where = append(where, "1 = 0")
		} else {
			where = append(where, fmt.Sprintf("risk_level IN (%s)", strings.Join(marks, ", ")))
		}
	}
	if query.Registry != "" {
		where = append(where, "registry = "+next())
		args = append(args, string(query.Registry))
	}
	if f := strings.ToLower(strings.TrimSpace(query.Filter)); f != "" {
		pattern := "%" + escapeLike(f) + "%"
		var likes []string
		for _, col := range []string{"repo", "COALESCE(package_name, '')", "language"} {
			likes = append(likes, fmt.Sprintf("LOWER(%s) LIKE %s ESCAPE '%c'", col, next(), likeEscape))
			args = append(args, pattern)
		}
		where = append(where, "("+strings.Join(likes, " OR ")+")")
	}

	sqlQuery := fmt.Sprintf("SELECT %s FROM %s", strings.Join(reportColumns, ", "), quoteTableName(riskReportTable, ss.backend))
	if len(where) > 0 {
		sqlQuery += " WHERE " + strings.Join(where, " AND ")
	}
	sqlQuery += " ORDER BY " + orderClause(query.SortBy)
	if query.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", query.Limit)
	}
	return sqlQuery, args
}

// likeEscape is not a backslash because MySQL treats one inside a string literal
// as an escape of its own.
const likeEscape = '!'

var likeEscaper = strings.NewReplacer(
	string(likeEscape), string(likeEscape)+string(likeEscape),
	"%", string(likeEscape)+"%",
	"_", string(likeEscape)+"_",
)

// escapeLike makes LIKE wildcards in user input match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// List reads rows from the persisted report. A store that has never been
// written returns an empty list.
func (ss *SnapshotStoreImpl) List(ctx context.Context, query schema.ReportQuery) ([]schema.ScoredRepo, error) {
	if ss.db == nil {
		return nil, nil
	}
	exists, err := ss.reportTableExists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", riskReportTable, err)
	}
	if !exists {
		return nil, nil
	}

	sqlQuery, args := ss.buildListQuery(query)
	rows, err := ss.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", riskReportTable, err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.ScoredRepo
	for rows.Next() {
		var (
			r           schema.ScoredRepo
			packageName *string
			registry    *string
			riskLevel   string
			updated     dbTime
		)
		if err := rows.Scan(
			&r.Repo, &r.Language, &packageName, &r.Popularity, &registry,
			&r.TotalCommits, &r.RecentCommits, &r.OlderCommits, &r.VelocityRatio,
			&r.GiniCoefficient, &r.Top1Share, &r.Top3Share, &r.ContributorCount, &r.ContributorDataAvailable,
			&r.RiskVelocity, &r.RiskGini, &r.RiskConcentration, &r.RiskBusFactor,
			&r.TotalRiskScore, &riskLevel, &updated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", riskReportTable, err)
		}
		if packageName != nil {
			r.PackageName = *packageName
		}
		r.Registry = schema.NoRegistry
		if registry != nil {
			r.Registry = schema.Registry(*registry)
		}
		r.RiskLevel = schema.RiskLevel(riskLevel)
		r.UpdatedAt = updated.Time.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
