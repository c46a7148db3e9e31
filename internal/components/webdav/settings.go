package webdav

// Settings holds WebDAV configuration. Implements cfg.Setter for ApplyDefaults().
type Settings struct {
	// HideDotfiles hides entries whose name starts with "." from listings
	// and lookups.
	HideDotfiles bool `mapstructure:"hide_dotfiles"`
}

// ApplyDefaults sets defaults. Called by cfg.Decode().
func (s *Settings) ApplyDefaults() {}
