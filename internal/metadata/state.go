package metadata

// FetchState is the terminal per-cycle classification of a repository,
// published verbatim as the value of the fetch-state gauge.
type FetchState int

const (
	StateNeverFetched FetchState = 0
	StateSuccess      FetchState = 1
	StatePartial      FetchState = 2
	StateFailed       FetchState = 3
)

func (s FetchState) String() string {
	switch s {
	case StateNeverFetched:
		return "never_fetched"
	case StateSuccess:
		return "success"
	case StatePartial:
		return "partial"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
