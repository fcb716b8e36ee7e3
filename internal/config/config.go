package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"interview-scoring-service/internal/domain"
	"interview-scoring-service/internal/scoring"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Locks struct {
		TTL  string `yaml:"ttl"`
		Wait string `yaml:"wait"`
	} `yaml:"locks"`
	Persistence struct {
		MaxRetries      uint64 `yaml:"max_retries"`
		InitialInterval string `yaml:"initial_interval"`
		MaxInterval     string `yaml:"max_interval"`
	} `yaml:"persistence"`
	Scoring  Scoring                 `yaml:"scoring"`
	Feedback scoring.FeedbackCatalog `yaml:"feedback"`
}

// Scoring configures weight profiles on top of the built-in ones.
type Scoring struct {
	DefaultProfile   string                                  `yaml:"default_profile"`
	Profiles         map[string]map[domain.Dimension]float64 `yaml:"profiles"`
	CategoryProfiles map[string]string                       `yaml:"category_profiles"`
	RescoreWorkers   int                                     `yaml:"rescore_workers"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// ProfileRegistry builds the weight profiles: built-ins first, then configured
// profiles replacing or extending them. When default_profile names another
// profile, its weights are registered as "default" too.
func (c Config) ProfileRegistry() (*scoring.ProfileRegistry, error) {
	profiles := scoring.BuiltinProfiles()
	for name, weights := range c.Scoring.Profiles {
		p, err := scoring.NewWeightProfile(name, weights)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if name := c.Scoring.DefaultProfile; name != "" && name != scoring.DefaultProfileName {
		var target *scoring.WeightProfile
		for i := range profiles {
			if profiles[i].Name() == name {
				target = &profiles[i]
			}
		}
		if target == nil {
			return nil, fmt.Errorf("%w: default_profile %q", domain.ErrUnknownProfile, name)
		}
		alias, err := scoring.NewWeightProfile(scoring.DefaultProfileName, target.Weights())
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, alias)
	}
	return scoring.NewProfileRegistry(profiles, c.Scoring.CategoryProfiles)
}

// Catalog returns the built-in feedback catalog with configured entries merged over it.
func (c Config) Catalog() scoring.FeedbackCatalog {
	return scoring.DefaultCatalog().Merge(c.Feedback)
}

// RescoreWorkers returns the configured batch parallelism, at least 1.
func (c Config) RescoreWorkers() int {
	if c.Scoring.RescoreWorkers < 1 {
		return 4
	}
	return c.Scoring.RescoreWorkers
}
