// Package subject holds exam subject configuration: per-subject maximum
// scores and the percent thresholds that derive pass/excellence lines.
package subject

import (
	"fmt"
	"strings"
)

// Config describes one exam subject. Percent thresholds are expressed
// on a 0..100 scale against MaxScore.
type Config struct {
	Name              string  `json:"name"`
	MaxScore          float64 `json:"max_score"`
	PassPercent       float64 `json:"pass_percent"`
	ExcellencePercent float64 `json:"excellence_percent"`
}

const (
	DefaultMaxScore          = 150
	DefaultPassPercent       = 60
	DefaultExcellencePercent = 80
)

// New validates and builds a subject configuration. MaxScore must be
// positive; percent thresholds are clamped into [0,100]. A pass percent
// above the excellence percent is unusual but accepted.
func New(name string, maxScore, passPercent, excellencePercent float64) (Config, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Config{}, fmt.Errorf("subject: name required")
	}
	if maxScore <= 0 {
		return Config{}, fmt.Errorf("subject %q: max score must be positive, got %v", name, maxScore)
	}
	return Config{
		Name:              name,
		MaxScore:          maxScore,
		PassPercent:       clampPercent(passPercent),
		ExcellencePercent: clampPercent(excellencePercent),
	}, nil
}

// Default builds a configuration for name using the customary max score
// for well-known subjects and the standard 60/80 thresholds.
func Default(name string) (Config, error) {
	return New(name, DefaultMax(name), DefaultPassPercent, DefaultExcellencePercent)
}

// PassLine is the minimum passing score.
func (c Config) PassLine() float64 { return c.MaxScore * c.PassPercent / 100 }

// ExcellenceLine is the minimum excellent score.
func (c Config) ExcellenceLine() float64 { return c.MaxScore * c.ExcellencePercent / 100 }

// defaultMaxScores maps well-known subject names (matched as a
// case-insensitive substring) to their customary full marks.
var defaultMaxScores = []struct {
	key string
	max float64
}{
	{"chinese", 150},
	{"math", 150},
	{"english", 120},
	{"foreign language", 120},
	{"science", 180},
	{"social studies", 100},
	{"civics", 100},
	{"physical education", 40},
}

// DefaultMax returns the customary max score for a subject name, or
// DefaultMaxScore when the name is not recognized.
func DefaultMax(name string) float64 {
	low := strings.ToLower(name)
	for _, e := range defaultMaxScores {
		if strings.Contains(low, e.key) {
			return e.max
		}
	}
	return DefaultMaxScore
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
