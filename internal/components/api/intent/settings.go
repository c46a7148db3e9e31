package intent

import "time"

// Defaults for the event channel, following the gorilla/websocket chat example.
const (
	DefaultWriteWait    = 10 * time.Second
	DefaultPongWait     = 60 * time.Second
	DefaultMaxBodyBytes = 64 * 1024
	DefaultPushBuffer   = 16

	// Inbound frames on the event channel are control traffic only.
	maxInboundMessageSize = 512
)

// Settings configures the bridge handlers. Decoded from [http.services.api].
type Settings struct {
	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`

	// AllowedOrigins are origins (scheme://host[:port]) accepted on the event
	// channel in addition to loopback hosts. Matching is exact. Requests
	// without an Origin header are accepted.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	WriteWait time.Duration `mapstructure:"write_wait"`
	PongWait  time.Duration `mapstructure:"pong_wait"`

	// PingPeriod must be shorter than PongWait. Default: 9/10 of PongWait.
	PingPeriod time.Duration `mapstructure:"ping_period"`

	// PushBuffer is set from [bridge] push_buffer, not from the service map.
	PushBuffer int `mapstructure:"-"`
}

// ApplyDefaults sets defaults. Called by cfg.Decode().
func (s *Settings) ApplyDefaults() {
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.WriteWait <= 0 {
		s.WriteWait = DefaultWriteWait
	}
	if s.PongWait <= 0 {
		s.PongWait = DefaultPongWait
	}
	if s.PingPeriod <= 0 || s.PingPeriod >= s.PongWait {
		s.PingPeriod = s.PongWait * 9 / 10
	}
	if s.PushBuffer <= 0 {
		s.PushBuffer = DefaultPushBuffer
	}
}
