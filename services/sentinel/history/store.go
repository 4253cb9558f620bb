// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package history

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/AleutianAI/sentinel/services/sentinel/commander"
	"github.com/AleutianAI/sentinel/services/sentinel/loop"
)

// Key prefixes. Keys are prefix + RFC3339Nano timestamp + id, so a prefix
// scan yields chronological order.
const (
	decisionPrefix = "decision/"
	loopPrefix     = "loop/"
)

// DecisionEntry is one persisted verification decision. The candidate code
// itself is not stored; only its hash and length, enough to correlate a
// decision with a request without retaining generated code at rest.
type DecisionEntry struct {
	ID        string              `json:"id"`
	Timestamp time.Time           `json:"timestamp"`
	Decision  *commander.Decision `json:"decision"`
	CodeHash  string              `json:"code_hash"`
	CodeBytes int                 `json:"code_bytes"`
}

// LoopEntry is one persisted correction loop outcome.
type LoopEntry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Outcome   *loop.Outcome `json:"outcome"`
}

// Store records gate activity for later audit.
type Store interface {
	RecordDecision(ctx context.Context, decision *commander.Decision, code string) error
	RecordLoop(ctx context.Context, outcome *loop.Outcome) error

	// RecentDecisions returns up to limit entries, newest first.
	RecentDecisions(ctx context.Context, limit int) ([]DecisionEntry, error)

	// RecentLoops returns up to limit entries, newest first.
	RecentLoops(ctx context.Context, limit int) ([]LoopEntry, error)

	Close() error
}

// BadgerStore is the embedded Store implementation.
//
// Thread Safety: BadgerStore is safe for concurrent use.
type BadgerStore struct {
	db        *badger.DB
	retention time.Duration
}

// NewBadgerStore opens a history store with the given configuration.
func NewBadgerStore(cfg Config) (*BadgerStore, error) {
	db, err := open(cfg)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db, retention: cfg.Retention}, nil
}

// RecordDecision implements Store.
func (s *BadgerStore) RecordDecision(ctx context.Context, decision *commander.Decision, code string) error {
	if decision == nil {
		return fmt.Errorf("record decision: decision is nil")
	}
	hash := sha256.Sum256([]byte(code))
	entry := DecisionEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Decision:  decision,
		CodeHash:  hex.EncodeToString(hash[:8]),
		CodeBytes: len(code),
	}
	return s.put(ctx, chronoKey(decisionPrefix, entry.Timestamp, entry.ID), entry)
}

// RecordLoop implements Store.
func (s *BadgerStore) RecordLoop(ctx context.Context, outcome *loop.Outcome) error {
	if outcome == nil {
		return fmt.Errorf("record loop: outcome is nil")
	}
	entry := LoopEntry{
		ID:        outcome.RequestID,
		Timestamp: time.Now().UTC(),
		Outcome:   outcome,
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return s.put(ctx, chronoKey(loopPrefix, entry.Timestamp, entry.ID), entry)
}

// chronoKey builds a fixed-width chronological key so lexicographic byte
// order matches time order. A textual timestamp layout that drops trailing
// fractional-second zeros would break ordering within a second.
func chronoKey(prefix string, ts time.Time, id string) string {
	return fmt.Sprintf("%s%020d/%s", prefix, ts.UnixNano(), id)
}

// RecentDecisions implements Store.
func (s *BadgerStore) RecentDecisions(ctx context.Context, limit int) ([]DecisionEntry, error) {
	var entries []DecisionEntry
	err := s.scanNewestFirst(ctx, decisionPrefix, limit, func(value []byte) error {
		var entry DecisionEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			return fmt.Errorf("decode decision entry: %w", err)
		}
		entries = append(entries, entry)
		return nil
	})
	return entries, err
}

// RecentLoops implements Store.
func (s *BadgerStore) RecentLoops(ctx context.Context, limit int) ([]LoopEntry, error) {
	var entries []LoopEntry
	err := s.scanNewestFirst(ctx, loopPrefix, limit, func(value []byte) error {
		var entry LoopEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			return fmt.Errorf("decode loop entry: %w", err)
		}
		entries = append(entries, entry)
		return nil
	})
	return entries, err
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) put(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data)
		if s.retention > 0 {
			e = e.WithTTL(s.retention)
		}
		return txn.SetEntry(e)
	})
}

// scanNewestFirst iterates a key prefix in reverse chronological order.
func (s *BadgerStore) scanNewestFirst(ctx context.Context, prefix string, limit int, fn func(value []byte) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek past the last possible key in
		// the prefix range.
		seek := append([]byte(prefix), 0xFF)
		count := 0
		for it.Seek(seek); it.ValidForPrefix([]byte(prefix)); it.Next() {
			if limit > 0 && count >= limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				return fn(val)
			})
			if err != nil {
				return err
			}
			count++
		}
		return nil
	})
}

var _ Store = (*BadgerStore)(nil)

// NopStore discards everything. Used when history is disabled.
type NopStore struct{}

func (NopStore) RecordDecision(context.Context, *commander.Decision, string) error { return nil }
func (NopStore) RecordLoop(context.Context, *loop.Outcome) error                   { return nil }
func (NopStore) RecentDecisions(context.Context, int) ([]DecisionEntry, error)     { return nil, nil }
func (NopStore) RecentLoops(context.Context, int) ([]LoopEntry, error)             { return nil, nil }
func (NopStore) Close() error                                                      { return nil }

var _ Store = NopStore{}
