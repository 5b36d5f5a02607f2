package types

import "time"

// Contribution is one process's combined partial result submitted to the process tier.
type Contribution struct {
	// Rank identifies the submitting process.
	Rank int `json:"rank"`

	// Sum is the thread-tier combined sum of integrand evaluations.
	Sum float64 `json:"sum"`

	// Samples is the number of points the process evaluated.
	Samples uint64 `json:"samples"`

	// Err is non-empty when the process could not complete its share.
	Err string `json:"err,omitempty"`
}

// Failed reports whether the contribution carries an error.
func (c Contribution) Failed() bool {
	return c.Err != ""
}

// Estimate is the final result of one invocation, held only by the coordinator.
type Estimate struct {
	InvocationID string        `json:"invocationId"`
	Value        float64       `json:"value"`
	Volume       float64       `json:"volume"`
	Sum          float64       `json:"sum"`
	Iterations   uint64        `json:"iterations"`
	Dimensions   int           `json:"dimensions"`
	Processes    int           `json:"processes"`
	Threads      int           `json:"threads"`
	Duration     time.Duration `json:"duration"`
}
