package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchStatusAvailable(t *testing.T) {
	for _, status := range AllFetchStatuses {
		t.Run(string(status), func(t *testing.T) {
			assert.Equal(t, status == FetchSuccess, status.Available())
		})
	}
	assert.False(t, FetchStatus("bogus").Available())
}

func TestActivityRecordCompleteness(t *testing.T) {
	rec := ActivityRecord{
		Activity:     Succeeded(200),
		Contributors: Failed(FetchPendingCalculation, 202, nil),
	}
	assert.True(t, rec.ActivityAvailable())
	assert.False(t, rec.ContributorDataAvailable())
	assert.False(t, rec.DataComplete())

	rec.Contributors = Succeeded(204)
	assert.True(t, rec.DataComplete())

	rec.Activity = Failed(FetchNetworkError, 0, errors.New("boom"))
	assert.False(t, rec.DataComplete())
}

func TestNewRepoRefDefaultsLanguage(t *testing.T) {
	assert.Equal(t, UnknownLanguage, NewRepoRef("octo/widget", "").Language)
	assert.Equal(t, UnknownLanguage, NewRepoRef("octo/widget", "  ").Language)
	assert.Equal(t, "Go", NewRepoRef("octo/widget", "Go").Language)
}

func TestSplitIdentifier(t *testing.T) {
	tests := []struct {
		in    string
		owner string
		repo  string
		ok    bool
	}{
		{"facebook/react", "facebook", "react", true},
		{"facebook", "", "", false},
		{"/react", "", "", false},
		{"facebook/", "", "", false},
		{"a/b/c", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			owner, repo, ok := SplitIdentifier(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.repo, repo)
		})
	}
}

func TestRiskLevelAtLeast(t *testing.T) {
	assert.True(t, RiskCritical.AtLeast(RiskHigh))
	assert.True(t, RiskHigh.AtLeast(RiskHigh))
	assert.False(t, RiskMedium.AtLeast(RiskHigh))
	assert.False(t, RiskLevel("nope").AtLeast(RiskLow))

	lvl, ok := ParseRiskLevel(" high ")
	assert.True(t, ok)
	assert.Equal(t, RiskHigh, lvl)
	_, ok = ParseRiskLevel("severe")
	assert.False(t, ok)
}
