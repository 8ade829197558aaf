// Package compaction reclaims the disk space occupied by overwritten and
// removed keys. A pass scans every immutable segment oldest first,
// rewrites only the records still current in the index into a fresh
// segment, and deletes the original — all-or-nothing per segment.
package compaction

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/ignitedb/ignitedb/internal/record"
	"github.com/ignitedb/ignitedb/internal/segment"
)

// Ops is everything a compaction pass needs from its caller. Engine
// implements Ops itself and passes itself into Run, so a pass never calls
// back through the normal Set/Remove path and re-triggers its own
// threshold check mid-compaction.
type Ops interface {
	// ImmutableSegments returns the segments eligible for this pass, in
	// the order they should be visited.
	ImmutableSegments() []segment.ID

	// ScanSegment opens id for sequential replay from its start.
	ScanSegment(id segment.ID) (*segment.LogReader, error)

	// IsCurrent reports whether the index's pointer for key still points
	// at (id, offset) — i.e. whether this exact record is the reason the
	// key is live, rather than a stale version superseded by a later
	// write or removal.
	IsCurrent(key string, id segment.ID, offset int64) bool

	// RewriteRetained writes retained to a new segment and repoints the
	// index entries of every key in retained at their new locations,
	// atomically with respect to concurrent Get/Set/Remove calls.
	RewriteRetained(old segment.ID, retained []record.Record) error

	// DeleteSegment removes a segment whose retained records (if any)
	// have already been migrated elsewhere.
	DeleteSegment(id segment.ID) error

	// ResetCompactionCounter zeroes the since-last-compaction counter
	// once the pass completes.
	ResetCompactionCounter()
}

// Compaction runs compaction passes over a store's immutable segments.
type Compaction struct {
	log *zap.SugaredLogger
}

// Config holds the parameters needed to construct a Compaction.
type Config struct {
	Logger *zap.SugaredLogger
}

// New constructs a Compaction ready to run passes via Run.
func New(config *Config) *Compaction {
	return &Compaction{log: config.Logger}
}

// Run performs one compaction pass: every immutable segment ops currently
// knows about is visited oldest first. A segment with at least one dropped
// record has its still-current Set records migrated to a replacement
// segment and is then deleted; a segment with nothing dropped is left as is.
func (c *Compaction) Run(ctx context.Context, ops Ops) error {
	segments := ops.ImmutableSegments()
	c.log.Infow("starting compaction pass", "segments", len(segments))

	for _, id := range segments {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		retained, scanned, err := c.collectRetained(ops, id)
		if err != nil {
			return err
		}

		// If every record scanned out of this segment is still current,
		// nothing was dropped and the segment has nothing to gain from a
		// rewrite: leave it untouched rather than churning it into a new
		// segment ID for no reclaimed space.
		if len(retained) == scanned {
			c.log.Infow("segment has no dropped records, leaving untouched", "segmentID", id.N, "records", scanned)
			continue
		}

		if len(retained) > 0 {
			if err := ops.RewriteRetained(id, retained); err != nil {
				return err
			}
		}

		if err := ops.DeleteSegment(id); err != nil {
			return err
		}

		c.log.Infow("compacted segment", "segmentID", id.N, "retained", len(retained), "dropped", scanned-len(retained))
	}

	ops.ResetCompactionCounter()
	c.log.Infow("compaction pass complete")
	return nil
}

// collectRetained scans id end to end and returns the records still current
// in the index alongside the total number of records the segment held, so
// Run can tell a segment with nothing dropped (retained == scanned) from one
// that needs rewriting.
func (c *Compaction) collectRetained(ops Ops, id segment.ID) ([]record.Record, int, error) {
	reader, err := ops.ScanSegment(id)
	if err != nil {
		return nil, 0, err
	}
	defer reader.Close()

	var retained []record.Record
	var scanned int
	for {
		rec, offset, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		scanned++

		// Remove tombstones are never retained: the index is the single
		// source of truth for liveness, so dropping a tombstone here
		// cannot resurrect a key a later segment already removed.
		if rec.IsSet() && ops.IsCurrent(rec.Key, id, offset) {
			retained = append(retained, rec)
		}
	}

	return retained, scanned, nil
}
