package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Search styles for the loose-name strategy
const (
	SearchQuery  = "query"
	SearchByName = "by-name"
	SearchNone   = "none"
)

// Catalog maps each entity kind to its backend endpoints
type Catalog struct {
	Kinds map[string]KindCatalog `yaml:"kinds"`
}

// KindCatalog describes the endpoints of one entity kind
type KindCatalog struct {
	Collection   string          `yaml:"collection"`
	Search       string          `yaml:"search"`
	Appointments string          `yaml:"appointments"`
	Bulk         *SourceCatalog  `yaml:"bulk"`
	Sources      []SourceCatalog `yaml:"sources"`
}

// SourceCatalog describes one record source and its field defaults
type SourceCatalog struct {
	Name            string        `yaml:"name"`
	Path            string        `yaml:"path"`
	Type            string        `yaml:"type"`
	DefaultStatus   string        `yaml:"default_status"`
	DefaultPriority string        `yaml:"default_priority"`
	Timeout         time.Duration `yaml:"timeout"`
}

// LoadCatalog reads the catalog at path, or the embedded default when path is empty.
// Environment references such as ${CLINIC_TENANT} are expanded before parsing.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog: %w", err)
		}
		data = raw
	}
	return ParseCatalog([]byte(os.ExpandEnv(string(data))))
}

// ParseCatalog decodes and validates a YAML catalog
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks collections, search styles and source names
func (c *Catalog) Validate() error {
	if len(c.Kinds) == 0 {
		return fmt.Errorf("catalog defines no entity kinds")
	}
	for kind, kc := range c.Kinds {
		if !strings.HasPrefix(kc.Collection, "/") {
			return fmt.Errorf("catalog %s: collection must start with /", kind)
		}
		switch kc.Search {
		case "", SearchQuery, SearchByName, SearchNone:
		default:
			return fmt.Errorf("catalog %s: unknown search style %q", kind, kc.Search)
		}
		seen := make(map[string]bool, len(kc.Sources))
		for _, src := range kc.Sources {
			if src.Name == "" || src.Path == "" {
				return fmt.Errorf("catalog %s: sources need a name and a path", kind)
			}
			if seen[src.Name] {
				return fmt.Errorf("catalog %s: duplicate source %q", kind, src.Name)
			}
			seen[src.Name] = true
		}
		if kc.Bulk != nil && kc.Bulk.Path == "" {
			return fmt.Errorf("catalog %s: bulk catalog needs a path", kind)
		}
	}
	return nil
}

// Kind returns the catalog entry for kind
func (c *Catalog) Kind(kind string) (KindCatalog, bool) {
	kc, ok := c.Kinds[kind]
	return kc, ok
}
