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

// Package launcher implements the entry point that runs inside the launcher
// image: it parses the wrapper's arguments and hands the job to the
// orchestrator registered for its type.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"customjob-toolkit/pkg/logging"
	"customjob-toolkit/pkg/orchestrator"

	"github.com/agext/levenshtein"
	"github.com/spf13/pflag"
	"golang.org/x/exp/slices"
)

// ErrUnknownJobType is returned when no orchestrator handles the requested type.
var ErrUnknownJobType = errors.New("unknown job type")

var requiredFlags = []string{"type", "project", "location", "payload", "gcp_resources"}

// ParseArgs parses launcher arguments in any order.
func ParseArgs(args []string) (orchestrator.JobRequest, error) {
	var req orchestrator.JobRequest
	flags := pflag.NewFlagSet("launcher", pflag.ContinueOnError)
	flags.StringVar(&req.Type, "type", "", "job type to launch")
	flags.StringVar(&req.Project, "project", "", "project to run the job in")
	flags.StringVar(&req.Location, "location", "", "region to run the job in")
	flags.StringVar(&req.Payload, "payload", "", "serialized job payload")
	flags.StringVar(&req.GcpResources, "gcp_resources", "", "file the resource handle is written to")
	flags.StringVar(&req.ExecutorInput, "executor_input", "", "serialized executor input")
	flags.SetOutput(io.Discard)

	if err := flags.Parse(args); err != nil {
		return req, fmt.Errorf("failed to parse launcher arguments: %w", err)
	}
	if flags.NArg() > 0 {
		return req, fmt.Errorf("unexpected launcher arguments: %s", strings.Join(flags.Args(), " "))
	}

	var missing []string
	for _, name := range requiredFlags {
		if !flags.Changed(name) {
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) > 0 {
		return req, fmt.Errorf("missing required launcher arguments: %s", strings.Join(missing, ", "))
	}
	return req, nil
}

// Registry maps job types to the orchestrators that run them.
type Registry struct {
	orchestrators map[string]orchestrator.Orchestrator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{orchestrators: map[string]orchestrator.Orchestrator{}}
}

// Register adds or replaces the orchestrator for jobType.
func (r *Registry) Register(jobType string, o orchestrator.Orchestrator) {
	r.orchestrators[jobType] = o
}

// Types returns the registered job types in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.orchestrators))
	for t := range r.orchestrators {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Launch submits req with the orchestrator registered for req.Type.
func (r *Registry) Launch(ctx context.Context, req orchestrator.JobRequest) error {
	o, ok := r.orchestrators[req.Type]
	if !ok {
		return r.unknownType(req.Type)
	}
	logging.Info("Launching %s job in %s/%s", req.Type, req.Project, req.Location)
	if err := o.SubmitJob(ctx, req); err != nil {
		return fmt.Errorf("%s job failed: %w", req.Type, err)
	}
	return nil
}

func (r *Registry) unknownType(jobType string) error {
	types := r.Types()
	if suggestion, ok := closest(jobType, types); ok {
		return fmt.Errorf("%w %q, did you mean %q?", ErrUnknownJobType, jobType, suggestion)
	}
	return fmt.Errorf("%w %q, supported types: %s", ErrUnknownJobType, jobType, strings.Join(types, ", "))
}

// closest returns the candidate within a small edit distance of s, ignoring case.
func closest(s string, candidates []string) (string, bool) {
	type scored struct {
		name string
		dist int
	}
	var near []scored
	for _, c := range candidates {
		d := levenshtein.Distance(strings.ToLower(s), strings.ToLower(c), nil)
		if d <= maxSuggestionDistance(c) {
			near = append(near, scored{c, d})
		}
	}
	if len(near) == 0 {
		return "", false
	}
	sort.SliceStable(near, func(i, j int) bool { return near[i].dist < near[j].dist })
	return near[0].name, true
}

func maxSuggestionDistance(candidate string) int {
	if n := len(candidate) / 3; n > 1 {
		return n
	}
	return 1
}
