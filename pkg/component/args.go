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
	"fmt"

	"gopkg.in/yaml.v3"
)

// ArgKind identifies a literal or the kind of placeholder an Arg holds.
type ArgKind int

const (
	ArgLiteral ArgKind = iota
	ArgInputValue
	ArgInputPath
	ArgInputURI
	ArgOutputPath
	ArgOutputURI
	ArgExecutorInput
	ArgConcat
)

var placeholderKeys = map[string]ArgKind{
	"inputValue":    ArgInputValue,
	"inputPath":     ArgInputPath,
	"inputUri":      ArgInputURI,
	"outputPath":    ArgOutputPath,
	"outputUri":     ArgOutputURI,
	"executorInput": ArgExecutorInput,
	"concat":        ArgConcat,
}

// Arg is one element of a container command or args list.
type Arg struct {
	Kind ArgKind
	// Value is the literal text for ArgLiteral.
	Value string
	// Name is the referenced input or output for the name-based placeholders.
	Name string
	// Parts holds the pieces of an ArgConcat.
	Parts []Arg
}

func Literal(s string) Arg      { return Arg{Kind: ArgLiteral, Value: s} }
func InputValue(name string) Arg { return Arg{Kind: ArgInputValue, Name: name} }
func InputPath(name string) Arg  { return Arg{Kind: ArgInputPath, Name: name} }
func InputURI(name string) Arg   { return Arg{Kind: ArgInputURI, Name: name} }
func OutputPath(name string) Arg { return Arg{Kind: ArgOutputPath, Name: name} }
func OutputURI(name string) Arg  { return Arg{Kind: ArgOutputURI, Name: name} }
func ExecutorInput() Arg         { return Arg{Kind: ArgExecutorInput} }
func Concat(parts ...Arg) Arg    { return Arg{Kind: ArgConcat, Parts: parts} }

// Literals converts plain strings to literal args.
func Literals(values ...string) []Arg {
	out := make([]Arg, len(values))
	for i, v := range values {
		out[i] = Literal(v)
	}
	return out
}

func (k ArgKind) key() string {
	for key, kind := range placeholderKeys {
		if kind == k {
			return key
		}
	}
	return ""
}

// UnmarshalYAML accepts a scalar literal or a single-key placeholder mapping
// such as {inputValue: text}.
func (a *Arg) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*a = Literal(node.Value)
		return nil
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: placeholder must have exactly one key, got %d", node.Line, len(node.Content)/2)
		}
		key, val := node.Content[0].Value, node.Content[1]
		kind, ok := placeholderKeys[key]
		if !ok {
			return fmt.Errorf("line %d: unsupported placeholder %q", node.Line, key)
		}
		switch kind {
		case ArgExecutorInput:
			*a = ExecutorInput()
		case ArgConcat:
			var parts []Arg
			if err := val.Decode(&parts); err != nil {
				return fmt.Errorf("line %d: failed to decode concat: %w", node.Line, err)
			}
			*a = Concat(parts...)
		default:
			if val.Kind != yaml.ScalarNode || val.Value == "" {
				return fmt.Errorf("line %d: %s placeholder needs a name", node.Line, key)
			}
			*a = Arg{Kind: kind, Name: val.Value}
		}
		return nil
	default:
		return fmt.Errorf("line %d: command and args entries must be strings or placeholders", node.Line)
	}
}

// MarshalYAML writes literals as strings and placeholders as single-key maps.
func (a Arg) MarshalYAML() (interface{}, error) {
	switch a.Kind {
	case ArgLiteral:
		return a.Value, nil
	case ArgExecutorInput:
		return map[string]interface{}{a.Kind.key(): nil}, nil
	case ArgConcat:
		return map[string][]Arg{a.Kind.key(): a.Parts}, nil
	default:
		if key := a.Kind.key(); key != "" {
			return map[string]string{key: a.Name}, nil
		}
		return nil, fmt.Errorf("unknown arg kind %d", a.Kind)
	}
}
