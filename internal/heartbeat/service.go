// Package heartbeat logs a periodic one-line status summary so an operator
// can tell a healthy idle bot from a wedged one.
package heartbeat

import (
	"fmt"
	"log"

	rcron "github.com/robfig/cron/v3"

	"github.com/subtools/showcasebot/internal/tracker"
)

// StatsFunc returns the tracker's latest cycle snapshot.
type StatsFunc func() tracker.Stats

type Service struct {
	schedule string
	stats    StatsFunc
	cron     *rcron.Cron
}

func New(schedule string, stats StatsFunc) *Service {
	return &Service{schedule: schedule, stats: stats}
}

func (s *Service) Start() error {
	s.cron = rcron.New(rcron.WithSeconds())
	if _, err := s.cron.AddFunc(s.schedule, s.emit); err != nil {
		return fmt.Errorf("register heartbeat schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	log.Printf("[heartbeat] started, schedule %q", s.schedule)
	return nil
}

func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Service) emit() {
	st := s.stats()
	log.Printf("[heartbeat] cycles=%d tracked=%d checking=%d slow=%d ignored=%d warned=%d removed=%d approved=%d nudged=%d last=%s",
		st.Cycles, st.Tracked, st.Checking, st.CheckSlow, st.Ignored,
		st.Warned, st.Removed, st.Approved, st.Nudged,
		st.LastCycle.Format("15:04:05"))
}
