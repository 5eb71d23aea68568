package host

import "time"

// HealthStatus is the overall state reported by Health.
type HealthStatus string

const (
	HealthOK        HealthStatus = "ok"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// Health is a point-in-time summary of a host, safe to build from any
// goroutine.
type Health struct {
	Status          HealthStatus
	Timestamp       time.Time
	Frames          int64
	CancelledFrames int64
	CachedImages    int64
	Paint           BreakerStats
	Message         string
}

// Health reports whether the paint script is running. A script that has
// failed recently is degraded; one suspended by the breaker is unhealthy.
func (h *Host) Health() Health {
	m := h.metrics.Snapshot()
	hc := Health{
		Status:          HealthOK,
		Timestamp:       time.Now(),
		Frames:          m.Frames,
		CancelledFrames: m.CancelledFrames,
		CachedImages:    m.CacheEntries,
		Paint:           h.breaker.stats(),
	}
	switch {
	case hc.Paint.State != BreakerClosed:
		hc.Status = HealthUnhealthy
		hc.Message = "paint " + hc.Paint.State.String() + ": " + hc.Paint.LastError
	case hc.Paint.Consecutive > 0:
		hc.Status = HealthDegraded
		hc.Message = hc.Paint.LastError
	}
	return hc
}
