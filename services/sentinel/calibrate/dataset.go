// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package calibrate

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
)

// DefaultInjectionRate is the fraction of calibration samples replaced with
// known-vulnerable code. Injection stretches the upper tail of the score
// distribution so the quantile reflects realistic adversarial mass instead
// of an all-benign corpus.
const DefaultInjectionRate = 0.2

// CalibrationSample is one unit of calibration input.
type CalibrationSample struct {
	// Code is the source text to score, fences allowed.
	Code string `json:"code"`

	// Injected marks samples that were synthetically replaced with
	// vulnerable code.
	Injected bool `json:"injected,omitempty"`
}

// DatasetLoader supplies calibration samples.
type DatasetLoader interface {
	// Load returns up to limit samples. limit <= 0 means all available.
	Load(ctx context.Context, limit int) ([]CalibrationSample, error)

	// Name identifies the dataset for the calibration record.
	Name() string
}

// ============================================================================
// JSONL file loader
// ============================================================================

// FileDatasetLoader reads samples from a JSONL file, one JSON object per
// line with at least a "code" field. Blank lines are skipped.
type FileDatasetLoader struct {
	path string
}

// NewFileDatasetLoader creates a loader for the given JSONL path.
func NewFileDatasetLoader(path string) *FileDatasetLoader {
	return &FileDatasetLoader{path: path}
}

// Load implements DatasetLoader.
func (l *FileDatasetLoader) Load(ctx context.Context, limit int) ([]CalibrationSample, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDatasetLoad, l.path, err)
	}
	defer f.Close()

	var samples []CalibrationSample
	scanner := bufio.NewScanner(f)
	// Generated code samples can run long; the default 64KiB line cap is
	// too small.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatasetLoad, err)
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var sample CalibrationSample
		if err := json.Unmarshal(line, &sample); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrDatasetLoad, l.path, lineNo, err)
		}
		if sample.Code == "" {
			return nil, fmt.Errorf("%w: %s line %d: missing code field", ErrDatasetLoad, l.path, lineNo)
		}
		samples = append(samples, sample)
		if limit > 0 && len(samples) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrDatasetLoad, l.path, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %s contains no samples", ErrDatasetLoad, l.path)
	}
	return samples, nil
}

// Name implements DatasetLoader.
func (l *FileDatasetLoader) Name() string {
	return l.path
}

// ============================================================================
// Static and synthetic loaders
// ============================================================================

// StaticDatasetLoader serves a fixed in-memory sample set.
type StaticDatasetLoader struct {
	Samples []CalibrationSample
	Label   string
}

// Load implements DatasetLoader.
func (l *StaticDatasetLoader) Load(ctx context.Context, limit int) ([]CalibrationSample, error) {
	if len(l.Samples) == 0 {
		return nil, fmt.Errorf("%w: static dataset is empty", ErrDatasetLoad)
	}
	samples := l.Samples
	if limit > 0 && limit < len(samples) {
		samples = samples[:limit]
	}
	out := make([]CalibrationSample, len(samples))
	copy(out, samples)
	return out, nil
}

// Name implements DatasetLoader.
func (l *StaticDatasetLoader) Name() string {
	if l.Label != "" {
		return l.Label
	}
	return "static"
}

// benignTemplates are clean snippets used by the synthetic loader. They
// exercise common generated-code shapes without security-relevant calls.
var benignTemplates = []string{
	"def add(a, b):\n    return a + b\n",
	"def greet(name):\n    return f\"Hello, {name}!\"\n",
	"import json\n\ndef load_config(path):\n    with open(path) as f:\n        return json.load(f)\n",
	"def fibonacci(n):\n    a, b = 0, 1\n    for _ in range(n):\n        a, b = b, a + b\n    return a\n",
	"from dataclasses import dataclass\n\n@dataclass\nclass Point:\n    x: float\n    y: float\n",
	"def mean(values):\n    if not values:\n        return 0.0\n    return sum(values) / len(values)\n",
	"def chunk(items, size):\n    return [items[i:i + size] for i in range(0, len(items), size)]\n",
	"import logging\n\nlogger = logging.getLogger(__name__)\n\ndef process(item):\n    logger.info(\"processing %s\", item)\n    return item.strip()\n",
}

// vulnerableTemplates are snippets with known findings, used for synthetic
// injection. Each should trip a MEDIUM or HIGH severity rule.
var vulnerableTemplates = []string{
	"import pickle\n\ndef load(blob):\n    return pickle.loads(blob)\n",
	"def run(cmd):\n    import os\n    os.system(cmd)\n",
	"def compute(expr):\n    return eval(expr)\n",
	"import subprocess\n\ndef shell(cmd):\n    return subprocess.run(cmd, shell=True)\n",
	"import hashlib\n\ndef digest(data):\n    return hashlib.md5(data).hexdigest()\n",
	"import yaml\n\ndef parse(doc):\n    return yaml.load(doc)\n",
}

// SyntheticDatasetLoader fabricates a deterministic mixed corpus: benign
// templates cycled to the requested size, with an injected fraction
// replaced by vulnerable templates. Useful for demos and for calibrating
// without a real corpus.
type SyntheticDatasetLoader struct {
	// N is the number of samples to produce. Zero means 100.
	N int

	// InjectionRate is the vulnerable fraction. Zero means
	// DefaultInjectionRate; negative means no injection.
	InjectionRate float64

	// Seed fixes the injection positions. Zero means a fixed default so
	// repeated runs agree.
	Seed int64
}

// Load implements DatasetLoader.
func (l *SyntheticDatasetLoader) Load(ctx context.Context, limit int) ([]CalibrationSample, error) {
	n := l.N
	if n <= 0 {
		n = 100
	}
	if limit > 0 && limit < n {
		n = limit
	}

	samples := make([]CalibrationSample, n)
	for i := range samples {
		samples[i] = CalibrationSample{Code: benignTemplates[i%len(benignTemplates)]}
	}

	rate := l.InjectionRate
	if rate == 0 {
		rate = DefaultInjectionRate
	}
	if rate > 0 {
		seed := l.Seed
		if seed == 0 {
			seed = 1
		}
		InjectVulnerabilities(samples, rate, rand.New(rand.NewSource(seed)))
	}
	return samples, nil
}

// Name implements DatasetLoader.
func (l *SyntheticDatasetLoader) Name() string {
	return "synthetic"
}

// InjectVulnerabilities replaces a fraction of the samples in place with
// vulnerable templates and marks them Injected.
//
// Inputs:
//   - samples: The corpus to modify.
//   - rate: Fraction in (0, 1] to replace. Values outside the range are
//     clamped.
//   - rng: Position source. Nil picks positions from the tail instead,
//     keeping the call deterministic.
func InjectVulnerabilities(samples []CalibrationSample, rate float64, rng *rand.Rand) {
	if len(samples) == 0 || rate <= 0 {
		return
	}
	if rate > 1 {
		rate = 1
	}
	k := int(rate * float64(len(samples)))
	if k < 1 {
		k = 1
	}

	positions := make([]int, len(samples))
	for i := range positions {
		positions[i] = i
	}
	if rng != nil {
		rng.Shuffle(len(positions), func(i, j int) {
			positions[i], positions[j] = positions[j], positions[i]
		})
	} else {
		// Tail replacement keeps injection reproducible without a seed.
		for i, j := 0, len(positions)-1; i < j; i, j = i+1, j-1 {
			positions[i], positions[j] = positions[j], positions[i]
		}
	}

	for i := 0; i < k; i++ {
		pos := positions[i]
		samples[pos] = CalibrationSample{
			Code:     vulnerableTemplates[i%len(vulnerableTemplates)],
			Injected: true,
		}
	}
}

// DatasetHash fingerprints a sample set. The hash covers every sample's
// code in order, so any change to content or ordering changes the hash.
func DatasetHash(samples []CalibrationSample) string {
	h := sha256.New()
	for _, s := range samples {
		h.Write([]byte(s.Code))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
