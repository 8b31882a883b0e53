package link

import (
	"sync"
	"time"
)

// PassMetrics tracks linking activity of one Linker.
type PassMetrics struct {
	Passes          int64
	FailedPasses    int64
	SubBuilds       int64
	FailedSubBuilds int64
	AverageDuration time.Duration
	TotalDuration   time.Duration
}

type metrics struct {
	mutex sync.RWMutex
	PassMetrics
}

func (m *metrics) recordSubBuild(failed bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.SubBuilds++
	if failed {
		m.FailedSubBuilds++
	}
}

func (m *metrics) recordPass(duration time.Duration, failed bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Passes++
	if failed {
		m.FailedPasses++
	}
	m.TotalDuration += duration
	m.AverageDuration = m.TotalDuration / time.Duration(m.Passes)
}

func (m *metrics) snapshot() PassMetrics {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.PassMetrics
}
