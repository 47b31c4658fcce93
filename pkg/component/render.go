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
	"strings"
)

// ExecutorInputPlaceholder is replaced by the whole serialized executor input.
const ExecutorInputPlaceholder = "{{$}}"

// RenderArg renders a token into the placeholder string understood by the
// pipeline runtime. Names that are not declared are rendered as parameters.
func (s *Spec) RenderArg(a Arg) string {
	switch a.Kind {
	case ArgLiteral:
		return a.Value
	case ArgInputValue:
		return fmt.Sprintf("{{$.inputs.parameters['%s']}}", a.Name)
	case ArgInputPath:
		return fmt.Sprintf("{{$.inputs.artifacts['%s'].path}}", a.Name)
	case ArgInputURI:
		return fmt.Sprintf("{{$.inputs.artifacts['%s'].uri}}", a.Name)
	case ArgOutputPath:
		if out, ok := s.OutputNamed(a.Name); ok && !IsParameterType(out.Type) {
			return fmt.Sprintf("{{$.outputs.artifacts['%s'].path}}", a.Name)
		}
		return fmt.Sprintf("{{$.outputs.parameters['%s'].output_file}}", a.Name)
	case ArgOutputURI:
		return fmt.Sprintf("{{$.outputs.artifacts['%s'].uri}}", a.Name)
	case ArgExecutorInput:
		return ExecutorInputPlaceholder
	case ArgConcat:
		var b strings.Builder
		for _, p := range a.Parts {
			b.WriteString(s.RenderArg(p))
		}
		return b.String()
	}
	return ""
}

// RenderArgs renders every arg of a list.
func (s *Spec) RenderArgs(args []Arg) []string {
	if args == nil {
		return nil
	}
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = s.RenderArg(a)
	}
	return out
}
