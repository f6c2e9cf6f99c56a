package subject

// Registry is an ordered collection of subject configurations, unique by
// name. A registry belongs to a single analysis session; the session store
// serializes access, so the registry itself carries no locking.
type Registry struct {
	subjects []Config
}

func NewRegistry(subjects ...Config) *Registry {
	r := &Registry{}
	for _, c := range subjects {
		r.Add(c)
	}
	return r
}

// Add appends cfg; it reports false if a subject with the same name is
// already registered.
func (r *Registry) Add(cfg Config) bool {
	for _, s := range r.subjects {
		if s.Name == cfg.Name {
			return false
		}
	}
	r.subjects = append(r.subjects, cfg)
	return true
}

// Remove drops the subject with the given name, if present.
func (r *Registry) Remove(name string) {
	out := r.subjects[:0]
	for _, s := range r.subjects {
		if s.Name != name {
			out = append(out, s)
		}
	}
	r.subjects = out
}

// Update replaces the subject named name wholesale with cfg, keeping its
// position. It reports false if no such subject exists.
func (r *Registry) Update(name string, cfg Config) bool {
	for i, s := range r.subjects {
		if s.Name == name {
			r.subjects[i] = cfg
			return true
		}
	}
	return false
}

// Get returns the subject with the given name.
func (r *Registry) Get(name string) (Config, bool) {
	for _, s := range r.subjects {
		if s.Name == name {
			return s, true
		}
	}
	return Config{}, false
}

// List returns a snapshot copy in registration order.
func (r *Registry) List() []Config {
	out := make([]Config, len(r.subjects))
	copy(out, r.subjects)
	return out
}

func (r *Registry) Len() int { return len(r.subjects) }

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	return &Registry{subjects: r.List()}
}
