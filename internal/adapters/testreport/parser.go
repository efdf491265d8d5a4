// Package testreport parses the test engine's machine-readable result stream.
package testreport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/zerr"
)

// Parser consumes a line-delimited JSON result stream. Each record carries a
// test identifier, an outcome and an optional failure detail; anything else
// on the stream is tool noise and skipped. This is the only external output
// the engine interprets.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads the stream and returns the individual results plus their
// summary.
func (p *Parser) Parse(r io.Reader) ([]domain.TestResult, *domain.TestSummary, error) {
	var results []domain.TestResult
	summary := &domain.TestSummary{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}

		var res domain.TestResult
		if err := json.Unmarshal(line, &res); err != nil {
			// Interleaved tool output that merely looks like JSON.
			continue
		}
		if res.ID == "" || !validOutcome(res.Outcome) {
			continue
		}
		results = append(results, res)
		summary.Add(res)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, zerr.Wrap(err, "failed to read test result stream")
	}

	return results, summary, nil
}

// ParseString is a convenience wrapper over Parse for captured output.
func (p *Parser) ParseString(s string) ([]domain.TestResult, *domain.TestSummary, error) {
	return p.Parse(strings.NewReader(s))
}

func validOutcome(o domain.TestOutcome) bool {
	switch o {
	case domain.TestPass, domain.TestFail, domain.TestError, domain.TestSkip:
		return true
	}
	return false
}
