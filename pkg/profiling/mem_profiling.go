package profiling

import (
	"runtime"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/filetug/lazyfiler/pkg/logging"
)

var memProfilingInterval = 30 * time.Second
var pprofWriteHeapProfile = pprof.WriteHeapProfile

// DoMemProfiling rewrites a heap profile at path every memProfilingInterval
// for the life of the process. The returned func writes one immediately.
func DoMemProfiling(path string) (write func()) {
	create, writeHeap, interval := osCreate, pprofWriteHeapProfile, memProfilingInterval
	var mu sync.Mutex
	write = func() {
		mu.Lock()
		defer mu.Unlock()
		f, err := create(path)
		if err != nil {
			logging.Error("could not create memory profile", logging.String("path", path), logging.Err(err))
			return
		}
		defer func() {
			_ = f.Close()
		}()
		runtime.GC()
		if err := writeHeap(f); err != nil {
			logging.Error("could not write memory profile", logging.Err(err))
		}
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			write()
		}
	}()
	return write
}
