package logger

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

type endpointStat struct {
	requests int64
	bytes    int64
}

var (
	warnCounts  sync.Map // map[string]*int64
	errorCounts sync.Map // map[string]*int64
	endpoints   sync.Map // map[string]*endpointStat
)

func recordWarn(component string) {
	v, _ := warnCounts.LoadOrStore(component, new(int64))
	atomic.AddInt64(v.(*int64), 1)
}

func recordError(component string) {
	v, _ := errorCounts.LoadOrStore(component, new(int64))
	atomic.AddInt64(v.(*int64), 1)
}

// RecordRequest accumulates per-endpoint traffic for the periodic report.
func RecordRequest(endpoint string, size int) {
	v, _ := endpoints.LoadOrStore(endpoint, &endpointStat{})
	st := v.(*endpointStat)
	atomic.AddInt64(&st.requests, 1)
	atomic.AddInt64(&st.bytes, int64(size))
}

// StartReport begins periodic logging of runtime and traffic statistics.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(log)
			}
		}
	}()
}

func logReport(log *Log) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	traffic := map[string]map[string]int64{}
	endpoints.Range(func(k, v any) bool {
		st := v.(*endpointStat)
		traffic[k.(string)] = map[string]int64{
			"requests": atomic.LoadInt64(&st.requests),
			"bytes":    atomic.LoadInt64(&st.bytes),
		}
		return true
	})

	warns := map[string]int64{}
	warnCounts.Range(func(k, v any) bool {
		warns[k.(string)] = atomic.LoadInt64(v.(*int64))
		return true
	})
	errs := map[string]int64{}
	errorCounts.Range(func(k, v any) bool {
		errs[k.(string)] = atomic.LoadInt64(v.(*int64))
		return true
	})

	log.WithComponent("report").WithFields(Fields{
		"goroutines":     runtime.NumGoroutine(),
		"heap_alloc_mb":  float64(mem.HeapAlloc) / (1024 * 1024),
		"endpoints":      traffic,
		"warn_counts":    warns,
		"error_counts":   errs,
		"gc_cycles":      mem.NumGC,
		"total_alloc_mb": float64(mem.TotalAlloc) / (1024 * 1024),
	}).Info("periodic report")
}
