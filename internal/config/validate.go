package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := validatorInstance().Struct(c); err != nil {
		return describe(err)
	}
	if err := c.validateColumns(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if c.Storage.Mode == "gcs_emulator" && strings.TrimSpace(c.Storage.EmulatorHost) == "" {
		return errors.New("storage.emulator_host is required when storage.mode=gcs_emulator")
	}
	return nil
}

func (c *Config) validateColumns() error {
	dp := c.DataProcessing
	seen := map[string]struct{}{}
	for _, col := range dp.CategoricalColumns {
		seen[col] = struct{}{}
	}
	for _, col := range dp.NumericalColumns {
		if _, dup := seen[col]; dup {
			return fmt.Errorf("data_processing: column %q is listed as both categorical and numerical", col)
		}
	}
	for _, col := range dp.NumericalColumns {
		if col == dp.TargetColumn {
			return fmt.Errorf("data_processing: target column %q cannot be numerical", col)
		}
	}
	for _, col := range dp.FeatureCandidates {
		if col == dp.TargetColumn {
			return fmt.Errorf("data_processing: target column %q cannot be a feature candidate", col)
		}
	}
	return nil
}

func (c *Config) validatePaths() error {
	p := c.Paths
	if filepath.Clean(p.TrainFile) == filepath.Clean(p.TestFile) {
		return errors.New("paths: train_file and test_file must differ")
	}
	if filepath.Clean(p.ProcessedTrain) == filepath.Clean(p.ProcessedTest) {
		return errors.New("paths: processed_train and processed_test must differ")
	}
	for _, raw := range []string{p.RawFile, p.TrainFile, p.TestFile} {
		c := filepath.Clean(raw)
		if c == filepath.Clean(p.ProcessedTrain) || c == filepath.Clean(p.ProcessedTest) {
			return fmt.Errorf("paths: processed output %q overwrites an ingestion file", raw)
		}
	}
	return nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
