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

// Package component models container-based pipeline components: their declared
// inputs and outputs, the container execution spec and the placeholder tokens
// that a pipeline runtime substitutes at execution time.
package component

import "strings"

// Parameter and artifact type tags accepted in component definitions.
const (
	TypeString   = "String"
	TypeInteger  = "Integer"
	TypeFloat    = "Float"
	TypeBoolean  = "Boolean"
	TypeList     = "List"
	TypeDict     = "Dict"
	TypeArtifact = "Artifact"
)

var parameterTypes = map[string]bool{
	TypeString:   true,
	TypeInteger:  true,
	TypeFloat:    true,
	TypeBoolean:  true,
	TypeList:     true,
	TypeDict:     true,
	"str":        true,
	"int":        true,
	"float":      true,
	"bool":       true,
	"list":       true,
	"dict":       true,
	"JsonObject": true,
	"JsonArray":  true,
}

// IsParameterType reports whether a type tag denotes a parameter rather than an
// artifact. Untyped declarations are parameters.
func IsParameterType(t string) bool {
	t = strings.TrimSpace(t)
	return t == "" || parameterTypes[t]
}

// Spec is a component (task) definition.
type Spec struct {
	Name           string         `yaml:"name"`
	Description    string         `yaml:"description,omitempty"`
	Metadata       *Metadata      `yaml:"metadata,omitempty"`
	Inputs         []Input        `yaml:"inputs,omitempty"`
	Outputs        []Output       `yaml:"outputs,omitempty"`
	Implementation Implementation `yaml:"implementation"`
}

// Metadata carries free-form annotations and labels of a component.
type Metadata struct {
	Annotations map[string]string `yaml:"annotations,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
}

// Input is a declared component input.
type Input struct {
	Name        string      `yaml:"name"`
	Type        string      `yaml:"type,omitempty"`
	Description string      `yaml:"description,omitempty"`
	Default     interface{} `yaml:"default,omitempty"`
	Optional    bool        `yaml:"optional,omitempty"`
}

// Output is a declared component output.
type Output struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Implementation holds either a container execution spec or a graph. Only
// container implementations can be run as jobs.
type Implementation struct {
	Container *Container             `yaml:"container,omitempty"`
	Graph     map[string]interface{} `yaml:"graph,omitempty"`
}

// Container is the container execution spec of a component.
type Container struct {
	Image   string `yaml:"image"`
	Command []Arg  `yaml:"command,omitempty"`
	Args    []Arg  `yaml:"args,omitempty"`
}

// IsContainerBased reports whether the spec has a runnable container.
func (s *Spec) IsContainerBased() bool {
	return s != nil && s.Implementation.Container != nil && s.Implementation.Container.Image != ""
}

// InputNamed returns the declared input with the given name.
func (s *Spec) InputNamed(name string) (Input, bool) {
	for _, in := range s.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return Input{}, false
}

// OutputNamed returns the declared output with the given name.
func (s *Spec) OutputNamed(name string) (Output, bool) {
	for _, out := range s.Outputs {
		if out.Name == name {
			return out, true
		}
	}
	return Output{}, false
}

// DeepCopy returns a copy of s that shares no mutable state with it.
func (s *Spec) DeepCopy() *Spec {
	if s == nil {
		return nil
	}
	out := &Spec{
		Name:        s.Name,
		Description: s.Description,
	}
	if s.Metadata != nil {
		out.Metadata = &Metadata{
			Annotations: copyValue(s.Metadata.Annotations).(map[string]string),
			Labels:      copyValue(s.Metadata.Labels).(map[string]string),
		}
	}
	if s.Inputs != nil {
		out.Inputs = make([]Input, len(s.Inputs))
		for i, in := range s.Inputs {
			in.Default = copyValue(in.Default)
			out.Inputs[i] = in
		}
	}
	if s.Outputs != nil {
		out.Outputs = append([]Output(nil), s.Outputs...)
	}
	if c := s.Implementation.Container; c != nil {
		out.Implementation.Container = &Container{
			Image:   c.Image,
			Command: copyArgs(c.Command),
			Args:    copyArgs(c.Args),
		}
	}
	if s.Implementation.Graph != nil {
		out.Implementation.Graph = copyValue(s.Implementation.Graph).(map[string]interface{})
	}
	return out
}

func copyArgs(args []Arg) []Arg {
	if args == nil {
		return nil
	}
	out := make([]Arg, len(args))
	for i, a := range args {
		a.Parts = copyArgs(a.Parts)
		out[i] = a
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[k] = copyValue(val)
		}
		return m
	case []interface{}:
		l := make([]interface{}, len(t))
		for i, val := range t {
			l[i] = copyValue(val)
		}
		return l
	case map[string]string:
		m := make(map[string]string, len(t))
		for k, val := range t {
			m[k] = val
		}
		return m
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
