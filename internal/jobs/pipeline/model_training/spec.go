package model_training

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/hotel-reservation-prediction/internal/ml/search"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
)

const searchSpaceEnv = "HRP_SEARCH_SPACE_YAML"

//go:embed search_space.yaml
var searchSpaceFS embed.FS

type yamlSearchSpec struct {
	Pipeline string           `yaml:"pipeline"`
	Version  int              `yaml:"version"`
	Search   yamlSearchConfig `yaml:"search"`
}

type yamlSearchConfig struct {
	NIter       *int    `yaml:"n_iter"`
	CV          *int    `yaml:"cv"`
	NJobs       *int    `yaml:"n_jobs"`
	RandomState *int64  `yaml:"random_state"`
	Scoring     *string `yaml:"scoring"`
}

// loadSearchSpec returns the search space and settings, falling back to the
// built-in values when the YAML is missing or invalid.
func loadSearchSpec(log *logger.Logger) (search.Space, search.Settings) {
	space, settings, err := parseSearchSpec()
	if err != nil {
		if log != nil {
			log.Warn("model_training: search spec load failed; using fallback", "error", err)
		}
		return search.DefaultSpace(), search.DefaultSettings()
	}
	return space, settings
}

func parseSearchSpec() (search.Space, search.Settings, error) {
	raw, err := readSearchSpec()
	if err != nil {
		return nil, search.Settings{}, err
	}
	var spec yamlSearchSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, search.Settings{}, err
	}
	if strings.TrimSpace(spec.Pipeline) != StageName {
		return nil, search.Settings{}, fmt.Errorf("unexpected pipeline: %s", spec.Pipeline)
	}
	space, err := search.ParseSpace(raw)
	if err != nil {
		return nil, search.Settings{}, err
	}
	settings := search.DefaultSettings()
	s := spec.Search
	if s.NIter != nil {
		settings.NIter = *s.NIter
	}
	if s.CV != nil {
		settings.CV = *s.CV
	}
	if s.NJobs != nil {
		settings.NJobs = *s.NJobs
	}
	if s.RandomState != nil {
		settings.RandomState = *s.RandomState
	}
	if s.Scoring != nil {
		settings.Scoring = strings.TrimSpace(*s.Scoring)
	}
	if err := settings.Validate(); err != nil {
		return nil, search.Settings{}, errors.Join(errors.New("invalid search settings"), err)
	}
	return space, settings, nil
}

func readSearchSpec() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(searchSpaceEnv)); path != "" {
		return os.ReadFile(path)
	}
	return searchSpaceFS.ReadFile("search_space.yaml")
}
