package domain

// TestOutcome is the status of a single test case as reported by the test
// engine's result stream.
type TestOutcome string

const (
	TestPass  TestOutcome = "pass"
	TestFail  TestOutcome = "fail"
	TestError TestOutcome = "error"
	TestSkip  TestOutcome = "skip"
)

// TestResult is one record of the test engine's machine-readable stream.
// Only these three fields are required of the collaborator.
type TestResult struct {
	ID      string      `json:"id"`
	Outcome TestOutcome `json:"status"`
	Detail  string      `json:"detail,omitempty"`
}

// TestSummary aggregates a result stream into pass/fail counts.
type TestSummary struct {
	Passed  int
	Failed  int
	Errored int
	Skipped int
}

// Add counts one result.
func (s *TestSummary) Add(r TestResult) {
	switch r.Outcome {
	case TestPass:
		s.Passed++
	case TestFail:
		s.Failed++
	case TestError:
		s.Errored++
	case TestSkip:
		s.Skipped++
	}
}

// Total returns the number of counted results.
func (s *TestSummary) Total() int {
	return s.Passed + s.Failed + s.Errored + s.Skipped
}

// Ok reports whether the stream contained no failures or errors.
func (s *TestSummary) Ok() bool {
	return s.Failed == 0 && s.Errored == 0
}
