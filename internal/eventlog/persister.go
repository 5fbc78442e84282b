// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package eventlog

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/appguard/internal/logging"
	"github.com/tomtom215/appguard/internal/metrics"
)

type opKind int

const (
	opInsert opKind = iota
	opDeleteAll
)

func (k opKind) String() string {
	if k == opDeleteAll {
		return "delete_all"
	}
	return "insert"
}

type persistOp struct {
	kind  opKind
	entry Entry
}

// persister applies store operations in order on one background goroutine.
// Enqueue never blocks; a full queue drops the operation. The most recent
// writes can therefore be lost on overflow or crash.
type persister struct {
	store   Store
	timeout time.Duration

	queue chan persistOp
	done  chan struct{}

	closeOnce sync.Once
	closed    bool // guarded by Log.orderMu
}

func newPersister(store Store, cfg Config) *persister {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	p := &persister{
		store:   store,
		timeout: cfg.WriteTimeout,
		queue:   make(chan persistOp, cfg.QueueSize),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *persister) insert(e Entry) {
	p.enqueue(persistOp{kind: opInsert, entry: e})
}

func (p *persister) deleteAll() {
	p.enqueue(persistOp{kind: opDeleteAll})
}

func (p *persister) enqueue(op persistOp) {
	if p.closed {
		return
	}
	select {
	case p.queue <- op:
	default:
		metrics.RecordPersistFailure("queue_full")
		logging.Error().
			Str("operation", op.kind.String()).
			Int64("id", op.entry.ID).
			Int("queue_size", cap(p.queue)).
			Msg("Event store queue full, dropping write")
	}
}

func (p *persister) run() {
	defer close(p.done)

	for op := range p.queue {
		p.apply(op)
	}
}

func (p *persister) apply(op persistOp) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	var err error
	switch op.kind {
	case opInsert:
		err = p.store.Insert(ctx, op.entry)
	case opDeleteAll:
		err = p.store.DeleteAll(ctx)
	}
	if err != nil {
		metrics.RecordPersistFailure(op.kind.String())
		logging.Error().
			Err(err).
			Str("operation", op.kind.String()).
			Int64("id", op.entry.ID).
			Msg("Event store write failed")
	}
}

func (p *persister) close() {
	p.closeOnce.Do(func() {
		p.closed = true
		close(p.queue)
	})
}

func (p *persister) wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
