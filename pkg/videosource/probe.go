package videosource

import (
	"time"

	"github.com/tauraamui/facetrackd/pkg/log"
)

const (
	probeAttempts = 30
	probeInterval = 20 * time.Millisecond
)

var sleep = time.Sleep

// probeSource validates a freshly opened camera backend by attempting a
// bounded number of reads. Several backends only reveal unavailability
// through failed reads after a clean open, e.g. when another process
// holds the device. The candidate passes as long as it is still open
// after the loop: zero delivered frames is tolerated to give slow
// starting hardware a chance to warm up.
func probeSource(src Source) bool {
	gotAny := false
	for i := 0; i < probeAttempts; i++ {
		if !src.IsReady() {
			sleep(probeInterval)
		}
		frame, ok := src.Read()
		if !ok {
			sleep(probeInterval)
			log.Debug("probe attempt %d: no frame", i+1)
			continue
		}
		gotAny = true
		frame.Close()
	}

	if !src.IsOpen() {
		log.Debug("probe failed: source no longer open")
		return false
	}
	if !gotAny {
		log.Debug("probe passed without any frames, device may still be warming up")
	}
	return true
}
