package watch

import "sync"

// State is the mutable state shared between the poll loop and the command
// handlers: the last observed FDV, the last broadcast text and the
// loop-active flag. The original design relied on a single-writer scheduler;
// here a mutex carries that discipline. The narrow window where an
// unsubscribe lands between a fetch and its broadcast is accepted: broadcasts
// target the registry as it is at send time.
type State struct {
	mu            sync.Mutex
	previousFDV   float64
	hasPrevious   bool
	lastBroadcast string
	running       bool
}

func NewState() *State {
	return &State{}
}

// PreviousFDV returns the FDV recorded by the last successful broadcast.
func (s *State) PreviousFDV() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previousFDV, s.hasPrevious
}

// RecordFDV overwrites the previous FDV. Once set it is only ever
// overwritten, never cleared.
func (s *State) RecordFDV(value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previousFDV = value
	s.hasPrevious = true
}

func (s *State) LastBroadcast() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBroadcast, s.lastBroadcast != ""
}

func (s *State) SetLastBroadcast(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastBroadcast = text
}

// TryStart flips the loop-active flag, returning false when a loop is
// already running. This is what keeps /start idempotent.
func (s *State) TryStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return false
	}
	s.running = true
	return true
}

// Stop clears the loop-active flag; called by the loop itself on exit.
func (s *State) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

func (s *State) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
