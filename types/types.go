package types

// RunResult - Structure for completed command results
type RunResult struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	// Stderr is empty in streaming mode, where stderr is merged into Stdout.
	Stderr string `json:"stderr"`
}
