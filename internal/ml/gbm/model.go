package gbm

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FormatVersion tags saved models so readers can reject foreign files.
const FormatVersion = "hrp-gbm/v1"

func (c *Classifier) Save(w io.Writer) error {
	if len(c.Trees) == 0 && c.Format == "" {
		return fmt.Errorf("gbm: model is not fitted")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// SaveFile writes the model atomically, creating parent directories.
func (c *Classifier) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("gbm: create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*")
	if err != nil {
		return fmt.Errorf("gbm: create temp model: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := c.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("gbm: close temp model: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("gbm: move model into place: %w", err)
	}
	return nil
}

func Load(r io.Reader) (*Classifier, error) {
	var c Classifier
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("gbm: decode model: %w", err)
	}
	if c.Format != FormatVersion {
		return nil, fmt.Errorf("gbm: unsupported model format %q", c.Format)
	}
	for k := range c.Trees {
		t := &c.Trees[k]
		if len(t.Outputs) == 0 {
			return nil, fmt.Errorf("gbm: tree %d has no outputs", k)
		}
		for _, nd := range t.Nodes {
			if len(c.Features) > 0 && (nd.FeatureIndex < 0 || nd.FeatureIndex >= len(c.Features)) {
				return nil, fmt.Errorf("gbm: tree %d splits on unknown feature %d", k, nd.FeatureIndex)
			}
		}
	}
	return &c, nil
}

func LoadFile(path string) (*Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gbm: open model: %w", err)
	}
	defer f.Close()
	return Load(f)
}
