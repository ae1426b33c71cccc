// Package manifest records the dependencies bundled into an archive.
package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
)

// PackageSource identifies where a bundled dependency came from.
type PackageSource string

const (
	// SourcePip marks a dependency installed from the package index.
	SourcePip PackageSource = "pip"

	// SourceRPM marks a dependency copied from an installed system package.
	SourceRPM PackageSource = "rpm"
)

// DependencyRecord describes one bundled dependency. Records are immutable
// once added to a Manifest.
type DependencyRecord struct {
	Name              string        `json:"name"`
	Version           string        `json:"version,omitempty"`
	PackageSource     PackageSource `json:"package_source,omitempty"`
	RequirementsEntry string        `json:"requirements_entry,omitempty"`
	RPMName           string        `json:"rpm_name,omitempty"`
	RPMRelease        string        `json:"rpm_release,omitempty"`
	RPMEpoch          string        `json:"rpm_epoch,omitempty"`
}

// Manifest is an ordered set of DependencyRecords, unique by name.
type Manifest struct {
	records []DependencyRecord
	index   map[string]int
	reqs    map[string]string
	order   []string
}

// requirementName matches the leading distribution name of a requirement spec.
var requirementName = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?`)

// RequirementName returns the distribution name of a requirement spec, e.g.
// "Jinja2" for "Jinja2 >= 3.1.2, <3.2" and "Foo" for "Foo==1.0".
func RequirementName(spec string) string {
	return requirementName.FindString(spec)
}

// New creates an empty Manifest keyed by the given requirement specs. When a
// name is declared more than once the first spec wins.
func New(requirements []string) *Manifest {
	m := &Manifest{
		index: make(map[string]int),
		reqs:  make(map[string]string, len(requirements)),
		order: make([]string, 0, len(requirements)),
	}
	for _, spec := range requirements {
		name := RequirementName(spec)
		if name == "" {
			continue
		}
		if _, ok := m.reqs[name]; ok {
			continue
		}
		m.order = append(m.order, spec)
		m.reqs[name] = spec
	}
	return m
}

// Requirements returns the requirement specs the manifest was created with.
func (m *Manifest) Requirements() []string {
	return append([]string(nil), m.order...)
}

// RequirementFor returns the declared spec for a dependency name.
func (m *Manifest) RequirementFor(name string) (string, bool) {
	spec, ok := m.reqs[name]
	return spec, ok
}

// Add records a bundled dependency. When the name matches a declared
// requirement, RequirementsEntry is set to that requirement's spec. A record
// for an already-recorded name is ignored and Add returns false.
func (m *Manifest) Add(rec DependencyRecord) bool {
	if _, dup := m.index[rec.Name]; dup {
		return false
	}
	if spec, ok := m.RequirementFor(rec.Name); ok {
		rec.RequirementsEntry = spec
	}
	m.index[rec.Name] = len(m.records)
	m.records = append(m.records, rec)
	return true
}

// Get returns the record for name.
func (m *Manifest) Get(name string) (DependencyRecord, bool) {
	i, ok := m.index[name]
	if !ok {
		return DependencyRecord{}, false
	}
	return m.records[i], true
}

// Records returns a copy of the recorded dependencies in insertion order.
func (m *Manifest) Records() []DependencyRecord {
	return append([]DependencyRecord(nil), m.records...)
}

// Len returns the number of recorded dependencies.
func (m *Manifest) Len() int {
	return len(m.records)
}

// Encode writes the manifest as a JSON list.
func (m *Manifest) Encode(w io.Writer) error {
	records := m.records
	if records == nil {
		records = []DependencyRecord{}
	}
	return json.NewEncoder(w).Encode(records)
}

// Save writes the manifest to path.
func (m *Manifest) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := m.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("encoding dependency manifest: %w", err)
	}
	return f.Close()
}

// Decode reads a JSON dependency list as written by Encode.
func Decode(r io.Reader) ([]DependencyRecord, error) {
	var records []DependencyRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding dependency manifest: %w", err)
	}
	return records, nil
}
