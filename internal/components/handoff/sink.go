package handoff

import "sync"

// ChanSink is a buffered Sink. Paths are dropped when the buffer is full.
type ChanSink struct {
	ch   chan string
	done chan struct{}
	once sync.Once
	mu   sync.RWMutex
}

// NewChanSink creates a sink holding up to buffer undelivered paths.
func NewChanSink(buffer int) *ChanSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChanSink{
		ch:   make(chan string, buffer),
		done: make(chan struct{}),
	}
}

// Paths returns the delivery channel.
func (s *ChanSink) Paths() <-chan string {
	return s.ch
}

// Done is closed once the sink is closed.
func (s *ChanSink) Done() <-chan struct{} {
	return s.done
}

func (s *ChanSink) Send(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.ch <- path:
		return true
	default:
		return false
	}
}

func (s *ChanSink) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		close(s.done)
		s.mu.Unlock()
	})
}
