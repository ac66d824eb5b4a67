package tile

import (
	"log"
	"runtime"
)

// DefaultFlushFraction is the fraction of total RAM at which the builder
// starts flushing partially filled tiles to the store's scratch table
// instead of holding them in memory. 0.10 = 10%: unlike the teacher's
// image-tile pyramid, a single scan ingestion pass only ever needs to hold
// one tile row's worth of in-progress points, so a much smaller budget than
// the teacher's 90% is enough headroom.
const DefaultFlushFraction = 0.10

// ComputeMemoryLimit returns the number of bytes of pending point data the
// builder may hold before flushing, as fraction of total system RAM minus
// the memory the Go runtime has obtained from the OS (MemStats.Sys), and
// never less than 32 MB. Returns 0 if RAM detection fails, in which case
// the caller should fall back to a fixed byte budget.
func ComputeMemoryLimit(fraction float64, verbose bool) int64 {
	totalRAM, err := totalSystemRAM()
	if err != nil {
		if verbose {
			log.Printf("Cannot detect system RAM: %v; using fixed flush budget", err)
		}
		return 0
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	limit := int64(float64(totalRAM)*fraction) - int64(m.Sys)
	if limit < 32*1024*1024 { // minimum 32 MB
		return 32 * 1024 * 1024
	}
	if verbose {
		log.Printf("Tile builder flush threshold: %.1f MB (%.0f%% of %.1f GB RAM)",
			float64(limit)/(1024*1024), fraction*100, float64(totalRAM)/(1024*1024*1024))
	}
	return limit
}
