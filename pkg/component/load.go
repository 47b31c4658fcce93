// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package component

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Load parses a component definition in the YAML text format.
func Load(r io.Reader) (*Spec, error) {
	var spec Spec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("component definition is empty")
		}
		return nil, fmt.Errorf("failed to parse component definition: %w", err)
	}
	if spec.Name == "" {
		return nil, fmt.Errorf("component definition has no name")
	}
	return &spec, nil
}

// LoadText parses a component definition held in a string.
func LoadText(text string) (*Spec, error) {
	return Load(bytes.NewBufferString(text))
}

// LoadFile reads and parses a component definition file.
func LoadFile(fs afero.Fs, path string) (*Spec, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open component file %q", path)
	}
	defer f.Close()

	spec, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "component file %q", path)
	}
	return spec, nil
}

// Marshal serializes the spec back to the YAML text format.
func (s *Spec) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode component %q: %w", s.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush component %q: %w", s.Name, err)
	}
	return buf.Bytes(), nil
}
