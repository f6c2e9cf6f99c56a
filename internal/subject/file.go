package subject

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// subjectsFile is the on-disk TOML shape:
//
//	[[subject]]
//	name = "Math"
//	max_score = 150
//	pass_percent = 60
//	excellence_percent = 80
type subjectsFile struct {
	Subjects []fileEntry `toml:"subject"`
}

type fileEntry struct {
	Name              string  `toml:"name"`
	MaxScore          float64 `toml:"max_score"`
	PassPercent       float64 `toml:"pass_percent"`
	ExcellencePercent float64 `toml:"excellence_percent"`
}

// LoadFile reads a subject registry from a TOML file. Omitted max scores
// fall back to the well-known defaults for the subject name; omitted
// percents fall back to 60/80.
func LoadFile(path string) (*Registry, error) {
	var f subjectsFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("subjects file %s: %w", path, err)
	}
	if len(f.Subjects) == 0 {
		return nil, fmt.Errorf("subjects file %s: no [[subject]] entries", path)
	}
	reg := NewRegistry()
	for _, e := range f.Subjects {
		if e.MaxScore == 0 {
			e.MaxScore = DefaultMax(e.Name)
		}
		if e.PassPercent == 0 {
			e.PassPercent = DefaultPassPercent
		}
		if e.ExcellencePercent == 0 {
			e.ExcellencePercent = DefaultExcellencePercent
		}
		cfg, err := New(e.Name, e.MaxScore, e.PassPercent, e.ExcellencePercent)
		if err != nil {
			return nil, fmt.Errorf("subjects file %s: %w", path, err)
		}
		if !reg.Add(cfg) {
			return nil, fmt.Errorf("subjects file %s: duplicate subject %q", path, cfg.Name)
		}
	}
	return reg, nil
}
