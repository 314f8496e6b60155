// Package loader reads declarative suite files (.suite.yaml) and turns
// them into executable suite trees whose case actions shell out. Files
// are schema-validated before decoding, and loaded definitions rebuild
// the same tree on every construction, which makes them safe for
// per-case isolation.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/runspec/packages/core/runner"
	"github.com/abdul-hamid-achik/runspec/packages/spec"
	"gopkg.in/yaml.v3"
)

// SuiteFileExt is the extension suite files are discovered by
const SuiteFileExt = ".suite.yaml"

// CaseDef declares one case in a suite file
type CaseDef struct {
	Name        string   `yaml:"name"`
	Command     string   `yaml:"command"`
	Tags        []string `yaml:"tags,omitempty"`
	Threads     int      `yaml:"threads,omitempty"`
	Invocations int      `yaml:"invocations,omitempty"`
	Timeout     string   `yaml:"timeout,omitempty"`
	Active      *bool    `yaml:"active,omitempty"`
}

// SuiteDef declares a suite with its cases and nested suites
type SuiteDef struct {
	Name   string     `yaml:"name"`
	Cases  []CaseDef  `yaml:"cases,omitempty"`
	Suites []SuiteDef `yaml:"suites,omitempty"`
}

// Defaults apply to cases that leave the field unset
type Defaults struct {
	Threads     int    `yaml:"threads,omitempty"`
	Invocations int    `yaml:"invocations,omitempty"`
	Timeout     string `yaml:"timeout,omitempty"`
}

// File is a parsed suite file
type File struct {
	Path     string     `yaml:"-"`
	Name     string     `yaml:"name"`
	Defaults *Defaults  `yaml:"defaults,omitempty"`
	Cases    []CaseDef  `yaml:"cases,omitempty"`
	Suites   []SuiteDef `yaml:"suites,omitempty"`
}

// Load parses and validates a suite file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}

	if err := validateBytes(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var f File
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.Path = path

	if f.Name == "" {
		base := filepath.Base(path)
		f.Name = strings.TrimSuffix(base, SuiteFileExt)
	}
	return &f, nil
}

// Factory returns a runner.Factory that rebuilds the suite tree from
// the parsed file on every call. The file content is fixed for the
// run, so construction is deterministic by position.
func (f *File) Factory() runner.Factory {
	baseDir := filepath.Dir(f.Path)
	return func() (spec.Definition, error) {
		root := spec.NewSuite(f.Name)
		top := SuiteDef{Name: f.Name, Cases: f.Cases, Suites: f.Suites}
		if err := buildSuite(root, top, f.Defaults, baseDir); err != nil {
			return nil, err
		}
		return &fileSpec{suite: root}, nil
	}
}

// fileSpec is the Definition for a loaded suite file. It embeds Base
// so resource closing and hook plumbing behave like hand-written specs,
// even though file-declared suites have no hook bodies to run.
type fileSpec struct {
	spec.Base
	suite *spec.Suite
}

func (s *fileSpec) Suite() *spec.Suite { return s.suite }

func buildSuite(target *spec.Suite, def SuiteDef, defaults *Defaults, baseDir string) error {
	for _, cd := range def.Cases {
		cfg, err := caseConfig(cd, defaults)
		if err != nil {
			return fmt.Errorf("case %q: %w", cd.Name, err)
		}
		active := cd.Active == nil || *cd.Active
		target.AddCase(cd.Name, cfg, active, shellAction(cd.Command, baseDir))
	}
	for _, sd := range def.Suites {
		child := target.AddSuite(sd.Name)
		if err := buildSuite(child, sd, defaults, baseDir); err != nil {
			return err
		}
	}
	return nil
}

func caseConfig(cd CaseDef, defaults *Defaults) (spec.Config, error) {
	cfg := spec.NewConfig()
	cfg.Tags = cd.Tags

	threads := cd.Threads
	invocations := cd.Invocations
	timeout := cd.Timeout
	if defaults != nil {
		if threads == 0 {
			threads = defaults.Threads
		}
		if invocations == 0 {
			invocations = defaults.Invocations
		}
		if timeout == "" {
			timeout = defaults.Timeout
		}
	}

	if threads > 0 {
		cfg.Threads = threads
	}
	if invocations > 0 {
		cfg.Invocations = invocations
	}
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return cfg, fmt.Errorf("invalid timeout %q: %w", timeout, err)
		}
		cfg.Timeout = d
	}
	return cfg.Normalize(), nil
}

// Collect finds suite files under the given paths. A path may be a
// file or a directory; directories are walked recursively.
func Collect(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(p, SuiteFileExt) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", path, err)
		}
	}
	return files, nil
}
