package scoring

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed profiles/*.yaml
var builtinFS embed.FS

// Registry resolves rubric profiles by name or alias, case-insensitively.
type Registry struct {
	profiles map[string]*Profile
	aliases  map[string]string
}

// NewRegistry registers the given profiles. Names and aliases must be unique.
func NewRegistry(profiles ...*Profile) (*Registry, error) {
	r := &Registry{
		profiles: make(map[string]*Profile),
		aliases:  make(map[string]string),
	}
	for _, p := range profiles {
		if err := r.Add(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry loads the built-in profiles.
func DefaultRegistry() (*Registry, error) {
	entries, err := builtinFS.ReadDir("profiles")
	if err != nil {
		return nil, fmt.Errorf("read builtin profiles: %w", err)
	}
	r, _ := NewRegistry()
	for _, e := range entries {
		data, err := builtinFS.ReadFile("profiles/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read builtin profile %s: %w", e.Name(), err)
		}
		p, err := ParseProfile(data)
		if err != nil {
			return nil, fmt.Errorf("builtin profile %s: %w", e.Name(), err)
		}
		if err := r.Add(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadDir adds every .yaml/.yml profile found directly under dir.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read profiles dir: %w", err)
	}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read profile %s: %w", e.Name(), err)
		}
		p, err := ParseProfile(data)
		if err != nil {
			return fmt.Errorf("profile %s: %w", e.Name(), err)
		}
		if err := r.Add(p); err != nil {
			return err
		}
	}
	return nil
}

// Add registers p under its name and aliases.
func (r *Registry) Add(p *Profile) error {
	keys := append([]string{p.Name}, p.Aliases...)
	for _, k := range keys {
		if _, taken := r.aliases[strings.ToLower(k)]; taken {
			return configErr(p.Name, "name %q already registered", k)
		}
	}
	r.profiles[p.Name] = p
	for _, k := range keys {
		r.aliases[strings.ToLower(k)] = p.Name
	}
	return nil
}

// Lookup returns the profile registered under name or one of its aliases.
func (r *Registry) Lookup(name string) (*Profile, error) {
	if canonical, ok := r.aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return r.profiles[canonical], nil
	}
	return nil, &ConfigurationError{Profile: name, Err: ErrUnknownProfile}
}

// Profiles returns every registered profile sorted by name.
func (r *Registry) Profiles() []*Profile {
	out := make([]*Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
