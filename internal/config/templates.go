package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerTemplate describes one instance of a cluster template.
// Name is relative: the cluster prefix is prepended at boot time.
type ServerTemplate struct {
	Name    string `yaml:"name"`
	Image   string `yaml:"image"`
	Flavor  string `yaml:"flavor"`
	Network string `yaml:"network,omitempty"`
}

// ChefRun is one convergence step: chef-client runs on each listed server.
type ChefRun struct {
	Servers []string `yaml:"servers"`
}

// Template is a named set of servers plus the ordered chef-client runs
// required to converge them.
type Template struct {
	Name     string           `yaml:"name"`
	Servers  []ServerTemplate `yaml:"servers"`
	ChefRuns []ChefRun        `yaml:"chef_runs,omitempty"`
}

// TemplateSet is the parsed content of a templates file.
type TemplateSet struct {
	Templates []Template `yaml:"templates"`
}

// LoadTemplates reads and validates the templates file at path.
// A missing file yields an empty set.
func LoadTemplates(path string) (*TemplateSet, error) {
	// #nosec G304
	data, err := os.ReadFile(ExpandHome(path))
	if errors.Is(err, fs.ErrNotExist) {
		return &TemplateSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read templates file: %w", err)
	}

	var set TemplateSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to unmarshal templates: %w", err)
	}

	seen := make(map[string]bool, len(set.Templates))
	for i := range set.Templates {
		tmpl := &set.Templates[i]
		if seen[tmpl.Name] {
			return nil, fmt.Errorf("duplicate template %q", tmpl.Name)
		}
		seen[tmpl.Name] = true

		if err := tmpl.Validate(); err != nil {
			return nil, err
		}
	}

	return &set, nil
}

// Get returns the template called name.
func (s *TemplateSet) Get(name string) (*Template, bool) {
	for i := range s.Templates {
		if s.Templates[i].Name == name {
			return &s.Templates[i], true
		}
	}
	return nil, false
}

// SingleServerTemplate builds the implicit template used when boot is given
// a name that no templates file defines.
func SingleServerTemplate(name, image, flavor, network string) *Template {
	return &Template{
		Name: name,
		Servers: []ServerTemplate{{
			Name:    name,
			Image:   image,
			Flavor:  flavor,
			Network: network,
		}},
	}
}

// Validate checks server names and chef run references.
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if len(t.Servers) == 0 {
		return fmt.Errorf("template %q: at least one server is required", t.Name)
	}

	servers := make(map[string]bool, len(t.Servers))
	for _, s := range t.Servers {
		switch {
		case s.Name == "":
			return fmt.Errorf("template %q: server name is required", t.Name)
		case servers[s.Name]:
			return fmt.Errorf("template %q: duplicate server %q", t.Name, s.Name)
		case s.Image == "":
			return fmt.Errorf("template %q: server %q: image is required", t.Name, s.Name)
		case s.Flavor == "":
			return fmt.Errorf("template %q: server %q: flavor is required", t.Name, s.Name)
		}
		servers[s.Name] = true
	}

	for i, run := range t.ChefRuns {
		if len(run.Servers) == 0 {
			return fmt.Errorf("template %q: chef run %d lists no servers", t.Name, i+1)
		}
		for _, name := range run.Servers {
			if !servers[name] {
				return fmt.Errorf("template %q: chef run %d references unknown server %q", t.Name, i+1, name)
			}
		}
	}

	return nil
}
