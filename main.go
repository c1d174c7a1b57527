// SPDX-License-Identifier: MIT
package main

import (
	"audioviz/cmd"
	"audioviz/internal/log"
	"audioviz/pkg/build"
	"os"
	"runtime"
)

// main is the entry point for the visualizer. Startup stays on the cold
// path: build information, runtime settings, then the command tree, which
// owns the audio engine and display host for the rest of the run.
func main() {
	// Initialize build information including version, commit hash, and build time.
	// Development builds fall back to the stamps recorded by the toolchain.
	if err := build.InitializeDev(); err != nil {
		log.Debugf("Build info: %v", err)
	}

	// Limit OS threads for real-time audio processing:
	// - One thread for the PortAudio callback feeding the engine (time-critical)
	// - One thread for rendering, the UI and telemetry I/O
	runtime.GOMAXPROCS(2)

	if err := cmd.Execute(); err != nil {
		log.Errorf("%s: %v", build.GetBuildFlags().Name, err)
		os.Exit(1)
	}
}
