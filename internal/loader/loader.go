// Package loader discovers and parses spec files. Dataset specs end in
// .dataset.yaml, metric specs in .metric.yaml, and quality specs in
// .quality.yaml; all are schema-validated at load time so malformed
// fields are rejected before first use.
package loader

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/1ambda/dataops-platform-sub001/pkg/core"
)

// File-naming conventions for spec discovery.
const (
	DatasetSuffix = ".dataset.yaml"
	MetricSuffix  = ".metric.yaml"
	QualitySuffix = ".quality.yaml"
)

// LoadSpecFile parses one dataset or metric spec file, inferring the
// kind from the filename suffix.
func LoadSpecFile(path string) (*core.Spec, error) {
	var kind core.SpecKind
	switch {
	case strings.HasSuffix(path, DatasetSuffix):
		kind = core.SpecKindDataset
	case strings.HasSuffix(path, MetricSuffix):
		kind = core.SpecKindMetric
	default:
		return nil, &core.ConfigurationError{
			Message: fmt.Sprintf("%s is not a dataset or metric spec file", path),
		}
	}

	var f specFile
	if err := decodeStrict(path, &f); err != nil {
		return nil, err
	}
	return f.toSpec(kind, path)
}

// LoadQualityFile parses one quality spec file.
func LoadQualityFile(path string) (*core.QualitySpec, error) {
	var f qualityFile
	if err := decodeStrict(path, &f); err != nil {
		return nil, err
	}
	return f.toQualitySpec(path)
}

// DiscoverSpecs walks the given directories and loads every dataset
// and metric spec found, sorted by file path. A directory that does
// not exist is skipped, not an error.
func DiscoverSpecs(dirs []string) ([]*core.Spec, error) {
	paths, err := discover(dirs, []string{DatasetSuffix, MetricSuffix})
	if err != nil {
		return nil, err
	}

	specs := make([]*core.Spec, 0, len(paths))
	for _, path := range paths {
		spec, err := LoadSpecFile(path)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// DiscoverQualitySpecs walks the given directories and loads every
// quality spec found, sorted by file path.
func DiscoverQualitySpecs(dirs []string) ([]*core.QualitySpec, error) {
	paths, err := discover(dirs, []string{QualitySuffix})
	if err != nil {
		return nil, err
	}

	specs := make([]*core.QualitySpec, 0, len(paths))
	for _, path := range paths {
		spec, err := LoadQualityFile(path)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func discover(dirs, suffixes []string) ([]string, error) {
	var paths []string
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, &core.ConfigurationError{
				Message: fmt.Sprintf("cannot access spec directory %s", dir),
				Cause:   err,
			}
		}
		if !info.IsDir() {
			return nil, &core.ConfigurationError{
				Message: fmt.Sprintf("%s is not a directory", dir),
			}
		}

		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			for _, suffix := range suffixes {
				if strings.HasSuffix(path, suffix) {
					paths = append(paths, path)
					break
				}
			}
			return nil
		})
		if err != nil {
			return nil, &core.ConfigurationError{
				Message: fmt.Sprintf("walking spec directory %s", dir),
				Cause:   err,
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// decodeStrict decodes YAML rejecting unknown fields, so typos in spec
// files fail at load time instead of silently defaulting.
func decodeStrict(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &core.ConfigurationError{
			Message: fmt.Sprintf("cannot read spec file %s", path),
			Cause:   err,
		}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return &core.ConfigurationError{
			Message: fmt.Sprintf("malformed spec file %s", path),
			Cause:   err,
		}
	}
	return nil
}
