package config

import "runtime"

// defaultWorkerCount mirrors the worker-count-from-NumCPU pattern used
// throughout the corpus's executor-shaped code (e.g. the Polqt log-query
// engine's executor), capped at maxWorkers here too so a default config on
// a large host never exceeds the spec's hard cap.
func defaultWorkerCount() int {
	n := runtime.NumCPU()
	if n > maxWorkers {
		return maxWorkers
	}
	if n < 1 {
		return 1
	}
	return n
}
