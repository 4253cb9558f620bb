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

// =============================================================================
// SECRET SCORER
// =============================================================================

// SecretPattern defines a pattern for detecting hardcoded credentials.
//
// Thread Safety: safe for concurrent use after the first Match call.
type SecretPattern struct {
	// Type is the secret type (api_key, password, private_key, ...).
	Type string

	// Severity indicates how serious the exposure is.
	Severity Severity

	// Pattern is the detection regex.
	Pattern string

	compiled *regexp.Regexp
	once     sync.Once
}

// Match reports whether content contains this secret pattern.
func (p *SecretPattern) Match(content string) bool {
	p.once.Do(func() {
		p.compiled = regexp.MustCompile(p.Pattern)
	})
	return p.compiled.MatchString(content)
}

var defaultSecretPatterns = []*SecretPattern{
	{Type: "private_key", Severity: SeverityHigh,
		Pattern: `-----BEGIN (?:RSA |EC |OPENSSH |DSA )?PRIVATE KEY-----`},
	{Type: "aws_access_key", Severity: SeverityHigh,
		Pattern: `\bAKIA[0-9A-Z]{16}\b`},
	{Type: "openai_key", Severity: SeverityHigh,
		Pattern: `\bsk-[A-Za-z0-9]{20,}\b`},
	{Type: "api_key_assignment", Severity: SeverityMedium,
		Pattern: `(?i)\b(?:api_?key|api_?secret|auth_?token)\s*=\s*['"][^'"]{8,}['"]`},
	{Type: "password_assignment", Severity: SeverityMedium,
		Pattern: `(?i)\bpassword\s*=\s*['"][^'"]+['"]`},
	{Type: "connection_string", Severity: SeverityMedium,
		Pattern: `(?i)\b(?:postgres|mysql|mongodb(?:\+srv)?|redis)://[^\s'"]*:[^\s'"]*@`},
}

// SecretScorer scores snippets by scanning for hardcoded credentials.
//
// Like PatternScorer it is a pure in-process signal with no fail-closed
// path of its own. It exists because the subprocess scanner is weak on
// credential detection: a snippet that embeds an API key is risky even
// when it is syntactically unremarkable.
//
// Thread Safety: SecretScorer is safe for concurrent use.
type SecretScorer struct {
	patterns []*SecretPattern
}

// NewSecretScorer creates a secret scorer with the built-in table.
func NewSecretScorer() *SecretScorer {
	return &SecretScorer{patterns: defaultSecretPatterns}
}

// Name implements ScoringService.
func (s *SecretScorer) Name() string {
	return "secrets"
}

// Score implements ScoringService.
func (s *SecretScorer) Score(ctx context.Context, code string) float64 {
	return s.Evaluate(ctx, code).Score
}

// Evaluate implements Evaluator.
func (s *SecretScorer) Evaluate(ctx context.Context, code string) *Evaluation {
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
			Category:    p.Type,
			Severity:    p.Severity,
			Description: "hardcoded credential: " + p.Type,
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

var _ Evaluator = (*SecretScorer)(nil)
