//go:build !darwin && !windows && !linux

package clip

// New returns the headless extractor; no clipboard integration exists for
// this platform.
func New(_ Options) Extractor { return Headless() }
