// Package consistency damps cross-upload score drift: re-analyzing the same
// video should not swing wildly between uploads. History is advisory; every
// storage failure is swallowed and the scoring path continues with the
// un-blended vector.
package consistency

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
)

const (
	// maxHistory bounds retained snapshots per fingerprint.
	maxHistory = 3

	overallBlendThreshold = 8
	metricBlendThreshold  = 10

	newShare  = 0.7
	lastShare = 0.3
)

// Snapshot is one prior score kept per video fingerprint.
type Snapshot struct {
	Timestamp time.Time              `json:"timestamp"`
	Overall   int                    `json:"overallScore"`
	Metrics   map[scoring.Metric]int `json:"metrics"`
}

// Fingerprint derives the stable per-file key from upload metadata. It must
// not depend on file bytes so identical re-uploads map to the same history.
func Fingerprint(name string, size int64, lastModifiedMs int64) string {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s|%d|%d", name, size, lastModifiedMs)
	return fmt.Sprintf("%016x", h.Sum64())
}

// Store commits new scores against the per-fingerprint history, blending when
// divergence from the latest entry exceeds the thresholds.
type Store interface {
	// Commit returns the possibly blended vector and whether blending
	// changed it. Implementations never return the error path to callers;
	// failures yield the input unchanged.
	Commit(ctx context.Context, fingerprint string, v scoring.ScoreVector) (scoring.ScoreVector, bool)
}

// blendAgainst mixes v with the latest snapshot per the divergence rules:
// overall blends at |delta| > 8, individual metrics at |delta| > 10, both as
// round(0.7*new + 0.3*last).
func blendAgainst(v scoring.ScoreVector, last Snapshot) (scoring.ScoreVector, bool) {
	out := v.Clone()
	blended := false
	if abs(v.Overall-last.Overall) > overallBlendThreshold {
		out.Overall = mix(v.Overall, last.Overall)
		blended = true
	}
	for m, s := range v.Metrics {
		prev, ok := last.Metrics[m]
		if !ok {
			continue
		}
		if abs(s-prev) > metricBlendThreshold {
			out.Metrics[m] = mix(s, prev)
			blended = true
		}
	}
	return out, blended
}

func mix(new, last int) int {
	return int(math.Round(newShare*float64(new) + lastShare*float64(last)))
}

func snapshotOf(v scoring.ScoreVector, at time.Time) Snapshot {
	metrics := make(map[scoring.Metric]int, len(v.Metrics))
	for m, s := range v.Metrics {
		metrics[m] = s
	}
	return Snapshot{Timestamp: at, Overall: v.Overall, Metrics: metrics}
}

func appendBounded(history []Snapshot, s Snapshot) []Snapshot {
	history = append(history, s)
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	return history
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
