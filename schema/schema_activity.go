package schema

// FetchStatus is the closed set of outcomes for a single statistics fetch.
type FetchStatus string

// All fetch outcomes. Only FetchSuccess carries usable data.
const (
	FetchSuccess            FetchStatus = "success"
	FetchNotFound           FetchStatus = "not_found"
	FetchRateLimited        FetchStatus = "rate_limited"
	FetchPendingCalculation FetchStatus = "pending_calculation"
	FetchNetworkError       FetchStatus = "network_error"
	FetchUpstreamError      FetchStatus = "upstream_error"
)

// AllFetchStatuses lists every fetch status in a stable order.
var AllFetchStatuses = []FetchStatus{
	FetchSuccess,
	FetchNotFound,
	FetchRateLimited,
	FetchPendingCalculation,
	FetchNetworkError,
	FetchUpstreamError,
}

// Available reports whether the outcome carries data the scorer can use.
func (s FetchStatus) Available() bool {
	switch s {
	case FetchSuccess:
		return true
	case FetchNotFound, FetchRateLimited, FetchPendingCalculation, FetchNetworkError, FetchUpstreamError:
		return false
	default:
		return false
	}
}

// FetchOutcome tags the result of one fetch.
// HTTPCode is the last status seen (0 when no response arrived) and Err is set for
// network and decoding failures.
type FetchOutcome struct {
	Status   FetchStatus `json:"status"`
	HTTPCode int         `json:"http_code,omitempty"`
	Err      error       `json:"-"`
}

// Succeeded returns a success outcome for the given HTTP code.
func Succeeded(code int) FetchOutcome {
	return FetchOutcome{Status: FetchSuccess, HTTPCode: code}
}

// Failed returns a non-success outcome.
func Failed(status FetchStatus, code int, err error) FetchOutcome {
	return FetchOutcome{Status: status, HTTPCode: code, Err: err}
}

// ActivityRecord is the merged raw signal for one repository from a single scan.
// It is consumed once by the scorer and never persisted.
type ActivityRecord struct {
	Repo RepoRef

	// WeeklyCommits holds 52 weekly commit counts, oldest first.
	WeeklyCommits []int
	Activity      FetchOutcome

	// Contributions holds one commit total per contributor.
	Contributions []int
	Contributors  FetchOutcome
}

// ActivityAvailable reports whether the weekly commit series was fetched.
func (r ActivityRecord) ActivityAvailable() bool {
	return r.Activity.Status.Available()
}

// ContributorDataAvailable reports whether the contributor totals were fetched.
func (r ActivityRecord) ContributorDataAvailable() bool {
	return r.Contributors.Status.Available()
}

// DataComplete reports whether both signals were fetched.
func (r ActivityRecord) DataComplete() bool {
	return r.ActivityAvailable() && r.ContributorDataAvailable()
}
