// Package profiling writes CPU and heap profiles for the -cpuprofile and
// -memprofile flags.
package profiling

import (
	"os"
	"runtime/pprof"

	"github.com/filetug/lazyfiler/pkg/logging"
)

var osCreate = os.Create
var pprofStartCPUProfile = pprof.StartCPUProfile
var pprofStopCPUProfile = pprof.StopCPUProfile

// DoCPUProfiling starts a CPU profile written to path. The returned func
// stops it; it is never nil.
func DoCPUProfiling(path string) (stop func()) {
	f, err := osCreate(path)
	if err != nil {
		logging.Error("could not create CPU profile", logging.String("path", path), logging.Err(err))
		return func() {}
	}
	if err = pprofStartCPUProfile(f); err != nil {
		logging.Error("could not start CPU profile", logging.Err(err))
		_ = f.Close()
		return func() {}
	}
	return func() {
		pprofStopCPUProfile()
		if err := f.Close(); err != nil {
			logging.Warn("could not close CPU profile", logging.Err(err))
		}
	}
}
