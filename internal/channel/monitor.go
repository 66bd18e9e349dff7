package channel

import (
	"runtime"
	"time"
)

// snapshotInterval is how often resource snapshots are pushed to
// subscribed connections.
const snapshotInterval = 5 * time.Second

var startTime = time.Now()

func takeSnapshot() ResourceSnapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ResourceSnapshot{
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: ms.HeapAlloc,
		HeapSysBytes:   ms.HeapSys,
		NumGC:          ms.NumGC,
		CPUs:           runtime.NumCPU(),
		UptimeSeconds:  time.Since(startTime).Seconds(),
	}
}
