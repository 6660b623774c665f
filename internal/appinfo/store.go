// Package appinfo keeps process-wide counters reported by /api/health.
package appinfo

import (
	"sync/atomic"
	"time"
)

var (
	startedAt atomic.Int64

	Uploads        atomic.Int64
	Transforms     atomic.Int64
	Saves          atomic.Int64
	DecodeFailures atomic.Int64
)

func init() {
	MarkStarted(time.Now())
}

// MarkStarted records the server start time.
func MarkStarted(t time.Time) {
	startedAt.Store(t.UnixNano())
}

// Uptime is the time since MarkStarted.
func Uptime() time.Duration {
	return time.Since(time.Unix(0, startedAt.Load())).Truncate(time.Second)
}

// Stats is a point-in-time copy of the counters.
type Stats struct {
	Uptime         string `json:"uptime"`
	Uploads        int64  `json:"uploads"`
	Transforms     int64  `json:"transforms"`
	Saves          int64  `json:"saves"`
	DecodeFailures int64  `json:"decodeFailures"`
}

func Snapshot() Stats {
	return Stats{
		Uptime:         Uptime().String(),
		Uploads:        Uploads.Load(),
		Transforms:     Transforms.Load(),
		Saves:          Saves.Load(),
		DecodeFailures: DecodeFailures.Load(),
	}
}
