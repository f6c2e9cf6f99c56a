// Package session keeps in-memory working sessions: one uploaded dataset
// with its subject registry and, after computation, the statistics and
// analysis results. Nothing is persisted; a session lives until deleted
// or the process exits.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/score-lens/scorelens/internal/analysis"
	"github.com/score-lens/scorelens/internal/roster"
	"github.com/score-lens/scorelens/internal/stats"
	"github.com/score-lens/scorelens/internal/subject"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrNotComputed    = errors.New("results not computed yet")
	ErrSubjectExists  = errors.New("subject already configured")
	ErrSubjectUnknown = errors.New("subject not configured")
)

// Results is one full computation pass. AnalysisErr records why analysis
// is unavailable when the statistics carry the empty-total sentinel.
type Results struct {
	Subjects    []stats.SubjectStatistics `json:"subjects"`
	Total       stats.TotalStatistics     `json:"total"`
	Analysis    *analysis.Result          `json:"analysis,omitempty"`
	AnalysisErr string                    `json:"analysis_error,omitempty"`
}

// Session is one uploaded dataset plus its configuration and results.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Registry  *subject.Registry
	Dataset   *roster.Dataset
	Results   *Results
}

// Store is a mutex-guarded in-memory session map.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: map[string]*Session{}}
}

// Create registers a new session around a dataset and registry.
func (s *Store) Create(reg *subject.Registry, ds *roster.Dataset) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Registry:  reg,
		Dataset:   ds,
	}
	s.sessions[sess.ID] = sess
	return sess
}

// View calls fn with the session under the read lock.
func (s *Store) View(id string, fn func(*Session) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	return fn(sess)
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Subjects returns a snapshot of the session's registry.
func (s *Store) Subjects(id string) ([]subject.Config, error) {
	var out []subject.Config
	err := s.View(id, func(sess *Session) error {
		out = sess.Registry.List()
		return nil
	})
	return out, err
}

// AddSubject registers a new subject; any previous results are dropped
// since a configuration change requires full recomputation.
func (s *Store) AddSubject(id string, cfg subject.Config) error {
	return s.mutate(id, func(sess *Session) error {
		if !sess.Registry.Add(cfg) {
			return fmt.Errorf("subject %q: %w", cfg.Name, ErrSubjectExists)
		}
		return nil
	})
}

// UpdateSubject replaces a subject configuration wholesale.
func (s *Store) UpdateSubject(id, name string, cfg subject.Config) error {
	return s.mutate(id, func(sess *Session) error {
		if !sess.Registry.Update(name, cfg) {
			return fmt.Errorf("subject %q: %w", name, ErrSubjectUnknown)
		}
		return nil
	})
}

// RemoveSubject drops a subject from the session's registry.
func (s *Store) RemoveSubject(id, name string) error {
	return s.mutate(id, func(sess *Session) error {
		sess.Registry.Remove(name)
		return nil
	})
}

func (s *Store) mutate(id string, fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if err := fn(sess); err != nil {
		return err
	}
	sess.Results = nil
	return nil
}

// Compute runs the full statistics and analysis pass and stores the
// outcome on the session. Statistics are always produced; an analysis
// failure (empty total) is recorded on the results instead of discarding
// them.
func (s *Store) Compute(id string) (*Results, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	subjects := sess.Registry.List()
	if len(subjects) == 0 {
		return nil, fmt.Errorf("session %s: no subjects configured", id)
	}

	res := &Results{}
	for _, cfg := range subjects {
		res.Subjects = append(res.Subjects, stats.ComputeSubject(cfg, sess.Dataset, sess.Dataset.Schools))
	}
	res.Total = stats.ComputeTotal(subjects, sess.Dataset, sess.Dataset.Schools)

	a, err := analysis.Generate(res.Subjects, res.Total)
	if err != nil {
		res.AnalysisErr = err.Error()
	} else {
		res.Analysis = a
	}
	sess.Results = res
	return res, nil
}
