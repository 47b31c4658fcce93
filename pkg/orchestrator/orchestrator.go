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

package orchestrator

import "context"

// JobRequest holds everything a launcher invocation passes to an orchestrator.
// Orchestrator implementations extract the fields relevant to them.
type JobRequest struct {
	// Type selects the orchestrator, e.g. "CustomJob".
	Type     string
	Project  string
	Location string
	// Payload is the serialized job body.
	Payload string
	// ExecutorInput is the runtime's serialized executor input, if any.
	ExecutorInput string
	// GcpResources is the path the resource handle of the submitted job is written to.
	GcpResources string
}

// Orchestrator defines the interface for submitting jobs and waiting for them.
type Orchestrator interface {
	// SubmitJob submits the job described by req and blocks until it reaches
	// a terminal state or ctx is done.
	SubmitJob(ctx context.Context, req JobRequest) error
}

// OrchestratorFunc adapts a function to the Orchestrator interface.
type OrchestratorFunc func(ctx context.Context, req JobRequest) error

func (f OrchestratorFunc) SubmitJob(ctx context.Context, req JobRequest) error {
	return f(ctx, req)
}
