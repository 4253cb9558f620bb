// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scorer

import (
	"context"
	"regexp"
	"sync"
	"time"
)

// PatternVersion tracks the built-in pattern database version.
const PatternVersion = "2026.02"

// =============================================================================
// SECURITY PATTERNS
// =============================================================================

// SecurityPattern defines a regex-detectable vulnerability pattern.
//
// Thread Safety:
//
//	SecurityPattern is safe for concurrent use after the first Match call;
//	compilation is guarded by sync.Once.
type SecurityPattern struct {
	// ID is the unique pattern identifier (e.g., SENT-003).
	ID string

	// Name is the vulnerability name (e.g., dynamic_eval).
	Name string

	// Severity is the severity assigned to a match.
	Severity Severity

	// Pattern is the detection regex.
	Pattern string

	compiled *regexp.Regexp
	once     sync.Once
}

// Match reports whether content matches the pattern.
func (p *SecurityPattern) Match(content string) bool {
	p.once.Do(func() {
		p.compiled = regexp.MustCompile(p.Pattern)
	})
	return p.compiled.MatchString(content)
}

// defaultPatterns is the built-in pattern table for Python snippets.
//
// Severities mirror what the subprocess scanner reports for the same
// constructs so that pattern-only deployments calibrate comparably.
var defaultPatterns = []*SecurityPattern{
	{ID: "SENT-001", Name: "dynamic_eval", Severity: SeverityHigh,
		Pattern: `\beval\s*\(`},
	{ID: "SENT-002", Name: "dynamic_exec", Severity: SeverityHigh,
		Pattern: `\bexec\s*\(`},
	{ID: "SENT-003", Name: "unsafe_pickle", Severity: SeverityHigh,
		Pattern: `\bpickle\.loads?\s*\(`},
	{ID: "SENT-004", Name: "os_system", Severity: SeverityHigh,
		Pattern: `\bos\.system\s*\(`},
	{ID: "SENT-005", Name: "dynamic_import", Severity: SeverityHigh,
		Pattern: `__import__\s*\(`},
	{ID: "SENT-006", Name: "subprocess_shell", Severity: SeverityMedium,
		Pattern: `\bsubprocess\.(run|call|Popen|check_output)\s*\([^)]*shell\s*=\s*True`},
	{ID: "SENT-007", Name: "unsafe_yaml_load", Severity: SeverityMedium,
		Pattern: `\byaml\.load\s*\((?:[^)]*\))?`},
	{ID: "SENT-008", Name: "insecure_temp_path", Severity: SeverityMedium,
		Pattern: `['"]/tmp/[^'"]*['"]`},
	{ID: "SENT-009", Name: "weak_hash_md5", Severity: SeverityMedium,
		Pattern: `\bhashlib\.md5\s*\(`},
	{ID: "SENT-010", Name: "insecure_random", Severity: SeverityLow,
		Pattern: `\brandom\.(random|randint|choice|randrange)\s*\(`},
	{ID: "SENT-011", Name: "assert_guard", Severity: SeverityLow,
		Pattern: `(?m)^\s*assert\b`},
	{ID: "SENT-012", Name: "bare_except_pass", Severity: SeverityLow,
		Pattern: `(?m)except\s*:\s*\n\s*pass\b`},
}

// =============================================================================
// PATTERN SCORER
// =============================================================================

// PatternScorer scores snippets against a regex pattern table.
//
// Description:
//
//	A pure in-process scoring signal with no external dependencies. It is
//	weaker than the subprocess scanner (no AST, no data flow) but cannot
//	fail closed on infrastructure problems, which makes it useful as a
//	floor signal in a composite. Scoring follows the same worst-finding
//	severity mapping as every other signal.
//
// Thread Safety: PatternScorer is safe for concurrent use.
type PatternScorer struct {
	patterns []*SecurityPattern
}

// NewPatternScorer creates a pattern scorer with the built-in table.
func NewPatternScorer() *PatternScorer {
	return &PatternScorer{patterns: defaultPatterns}
}

// NewPatternScorerWith creates a pattern scorer with a custom table.
// Intended for tests and deployments with site-specific patterns.
func NewPatternScorerWith(patterns []*SecurityPattern) *PatternScorer {
	return &PatternScorer{patterns: patterns}
}

// Name implements ScoringService.
func (s *PatternScorer) Name() string {
	return "pattern"
}

// Score implements ScoringService.
func (s *PatternScorer) Score(ctx context.Context, code string) float64 {
	return s.Evaluate(ctx, code).Score
}

// Evaluate implements Evaluator.
func (s *PatternScorer) Evaluate(ctx context.Context, code string) *Evaluation {
	start := time.Now()
	ctx, span := startScanSpan(ctx, s.Name())
	defer span.End()

	sanitized := Sanitize(code)

	var findings []Finding
	worst := SeverityNone
	for _, p := range s.patterns {
		if !p.Match(sanitized) {
			continue
		}
		findings = append(findings, Finding{
			Category:    p.ID,
			Severity:    p.Severity,
			Description: p.Name,
		})
		if p.Severity > worst {
			worst = p.Severity
		}
	}

	eval := &Evaluation{
		Score:    ScoreForSeverity(worst),
		Findings: findings,
		ParseOK:  true,
	}

	setScanSpanResult(span, eval)
	recordScanMetrics(ctx, s.Name(), time.Since(start), eval)
	return eval
}

var _ Evaluator = (*PatternScorer)(nil)
