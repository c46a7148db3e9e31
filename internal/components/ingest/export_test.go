package ingest

import "io"

// Export internal hooks for testing.

// SetRandForTest replaces the directory number source.
func (g *Ingestor) SetRandForTest(f func(n int) int) {
	g.randIntN = f
}

// SetCreateForTest replaces the destination file constructor.
func (g *Ingestor) SetCreateForTest(f func(name string) (io.WriteCloser, error)) {
	g.create = f
}
