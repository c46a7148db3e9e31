package ingest

const (
	DefaultTransDir        = "trans"
	DefaultCopyBufferBytes = 32 * 1024

	minCopyBufferBytes = 1024
	maxCopyBufferBytes = 64 * 1024
)

// Settings holds ingest configuration. Implements cfg.Setter for ApplyDefaults().
type Settings struct {
	// TransDir is the directory under the private root that holds ingested files.
	TransDir string `mapstructure:"trans_dir"`

	// CopyBufferBytes is the copy buffer size, clamped to [1 KiB, 64 KiB].
	CopyBufferBytes int `mapstructure:"copy_buffer_bytes"`
}

// ApplyDefaults sets defaults. Called by cfg.Decode().
func (s *Settings) ApplyDefaults() {
	if s.TransDir == "" {
		s.TransDir = DefaultTransDir
	}
	switch {
	case s.CopyBufferBytes == 0:
		s.CopyBufferBytes = DefaultCopyBufferBytes
	case s.CopyBufferBytes < minCopyBufferBytes:
		s.CopyBufferBytes = minCopyBufferBytes
	case s.CopyBufferBytes > maxCopyBufferBytes:
		s.CopyBufferBytes = maxCopyBufferBytes
	}
}
