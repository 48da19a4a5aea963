// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package identity

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Epoch is the generator epoch: 2020-01-01T00:00:00Z in Unix milliseconds.
const Epoch int64 = 1577836800000

const (
	timestampBits = 41
	nodeBits      = 10
	sequenceBits  = 12

	datacenterBits = 5
	workerBits     = 5

	maxNode      = (1 << nodeBits) - 1
	maxSequence  = (1 << sequenceBits) - 1
	maxTimestamp = (1 << timestampBits) - 1

	nodeShift      = sequenceBits
	timestampShift = sequenceBits + nodeBits

	// MaxDatacenterID and MaxWorkerID bound the two halves of the node id.
	MaxDatacenterID = (1 << datacenterBits) - 1
	MaxWorkerID     = (1 << workerBits) - 1
)

// ErrClockRollback indicates the system clock moved behind the last-used
// timestamp. The generation attempt fails rather than emitting a
// non-monotonic id; callers should pause and retry once the clock catches up.
var ErrClockRollback = errors.New("identity: system clock moved backwards")

// Config identifies a generator instance. Each concurrently-running instance
// must carry a distinct (DatacenterID, WorkerID) pair or ids will collide.
type Config struct {
	// DatacenterID occupies the high 5 bits of the node segment (0-31).
	DatacenterID int `koanf:"datacenter_id" json:"datacenter_id"`

	// WorkerID occupies the low 5 bits of the node segment (0-31).
	WorkerID int `koanf:"worker_id" json:"worker_id"`
}

// Generator produces unique, strictly increasing 64-bit identifiers.
// Safe for concurrent use; state is serialized behind a single mutex,
// which is sufficient given sub-millisecond operation cost.
type Generator struct {
	mu       sync.Mutex
	node     uint64
	lastTS   int64
	sequence uint64

	// now is swappable for tests; returns Unix milliseconds.
	now func() int64
}

// New creates a generator for the given node identity.
func New(cfg Config) (*Generator, error) {
	if cfg.DatacenterID < 0 || cfg.DatacenterID > MaxDatacenterID {
		return nil, fmt.Errorf("identity: datacenter id %d out of range [0, %d]", cfg.DatacenterID, MaxDatacenterID)
	}
	if cfg.WorkerID < 0 || cfg.WorkerID > MaxWorkerID {
		return nil, fmt.Errorf("identity: worker id %d out of range [0, %d]", cfg.WorkerID, MaxWorkerID)
	}

	node := uint64(cfg.DatacenterID)<<workerBits | uint64(cfg.WorkerID)

	return &Generator{
		node:   node,
		lastTS: -1,
		now:    func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// Next returns the next identifier. Never returns a duplicate or a value
// smaller than a previously returned value from this instance.
//
// The only blocking point is the sequence-overflow wait, bounded to under
// one millisecond.
func (g *Generator) Next() (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now()
	if ts < g.lastTS {
		return 0, fmt.Errorf("%w: %dms behind last timestamp", ErrClockRollback, g.lastTS-ts)
	}

	if ts == g.lastTS {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			// Sequence exhausted for this millisecond; wait out the tick.
			for ts <= g.lastTS {
				ts = g.now()
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastTS = ts

	elapsed := ts - Epoch
	if elapsed < 0 || elapsed > maxTimestamp {
		return 0, fmt.Errorf("identity: timestamp %d outside the 41-bit epoch window", ts)
	}

	return uint64(elapsed)<<timestampShift | g.node<<nodeShift | g.sequence, nil
}

// Node returns the 10-bit node segment carried by every id from this generator.
func (g *Generator) Node() uint64 {
	return g.node
}

// Decompose splits an id into its timestamp (Unix ms), node, and sequence parts.
func Decompose(id uint64) (timestampMS int64, node, sequence uint64) {
	timestampMS = int64(id>>timestampShift) + Epoch
	node = (id >> nodeShift) & maxNode
	sequence = id & maxSequence
	return timestampMS, node, sequence
}
