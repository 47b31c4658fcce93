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

// Package vertex submits custom jobs to Vertex AI and waits for them.
package vertex

import (
	"context"
	"fmt"
	"time"

	"customjob-toolkit/pkg/customjob"
	"customjob-toolkit/pkg/logging"
	"customjob-toolkit/pkg/orchestrator"

	"github.com/spf13/afero"
	"google.golang.org/api/aiplatform/v1"
)

const (
	DefaultPollInterval = 20 * time.Second

	cancelTimeout = 30 * time.Second
)

// Job states reported by the API.
const (
	StateSucceeded = "JOB_STATE_SUCCEEDED"
	StateFailed    = "JOB_STATE_FAILED"
	StateCancelled = "JOB_STATE_CANCELLED"
	StatePaused    = "JOB_STATE_PAUSED"
	StateExpired   = "JOB_STATE_EXPIRED"
)

var errorStates = map[string]bool{
	StateFailed:    true,
	StateCancelled: true,
	StatePaused:    true,
	StateExpired:   true,
}

// JobError is returned when a job ends in an error state.
type JobError struct {
	Name    string
	State   string
	Message string
}

func (e *JobError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("custom job %s ended in state %s", e.Name, e.State)
	}
	return fmt.Sprintf("custom job %s ended in state %s: %s", e.Name, e.State, e.Message)
}

// VertexOrchestrator implements the Orchestrator interface for Vertex AI custom jobs.
type VertexOrchestrator struct {
	fs           afero.Fs
	pollInterval time.Duration
	retry        RetryConfig
	newClient    ClientFactory
}

// Option configures a VertexOrchestrator.
type Option func(*VertexOrchestrator)

// WithFs sets the file system the resource handle is read from and written to.
func WithFs(fs afero.Fs) Option {
	return func(o *VertexOrchestrator) { o.fs = fs }
}

func WithPollInterval(d time.Duration) Option {
	return func(o *VertexOrchestrator) { o.pollInterval = d }
}

func WithRetryConfig(cfg RetryConfig) Option {
	return func(o *VertexOrchestrator) { o.retry = cfg }
}

// WithClientFactory replaces the API client, mostly for tests.
func WithClientFactory(f ClientFactory) Option {
	return func(o *VertexOrchestrator) { o.newClient = f }
}

// NewVertexOrchestrator creates and returns a new VertexOrchestrator instance.
func NewVertexOrchestrator(opts ...Option) *VertexOrchestrator {
	o := &VertexOrchestrator{
		fs:           afero.NewOsFs(),
		pollInterval: DefaultPollInterval,
		retry:        DefaultRetryConfig(),
		newClient: func(ctx context.Context, location string) (JobClient, error) {
			return NewAPIClient(ctx, location)
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SubmitJob creates the custom job described by req.Payload, or resumes the one
// already recorded at req.GcpResources, and waits until it finishes.
func (o *VertexOrchestrator) SubmitJob(ctx context.Context, req orchestrator.JobRequest) error {
	if req.Project == "" || req.Location == "" {
		return fmt.Errorf("project and location are required to submit a custom job")
	}
	if req.GcpResources == "" {
		return fmt.Errorf("a gcp_resources path is required to submit a custom job")
	}

	client, err := o.newClient(ctx, req.Location)
	if err != nil {
		return err
	}

	name, err := readResourceHandle(o.fs, req.GcpResources)
	if err != nil {
		return err
	}
	if name != "" {
		logging.Info("Resuming custom job %s recorded in %s", name, req.GcpResources)
		return o.wait(ctx, client, name)
	}

	payload, err := customjob.DecodePayload(req.Payload)
	if err != nil {
		return err
	}
	if req.ExecutorInput != "" {
		logging.Debug("Executor input: %s", req.ExecutorInput)
	}

	parent := fmt.Sprintf("projects/%s/locations/%s", req.Project, req.Location)
	logging.Info("Creating custom job %q under %s...", payload.DisplayName, parent)
	var created *aiplatform.GoogleCloudAiplatformV1CustomJob
	err = withRetry(ctx, o.retry, "create custom job", IsRetryableCreate, func() error {
		var err error
		created, err = client.CreateCustomJob(ctx, parent, toAPIJob(payload))
		return err
	})
	if err != nil {
		return err
	}
	logging.Info("Created custom job %s", created.Name)

	if err := writeResourceHandle(o.fs, req.GcpResources, req.Location, created.Name); err != nil {
		return err
	}
	return o.wait(ctx, client, created.Name)
}

func (o *VertexOrchestrator) wait(ctx context.Context, client JobClient, name string) error {
	lastState := ""
	for {
		var job *aiplatform.GoogleCloudAiplatformV1CustomJob
		err := withRetry(ctx, o.retry, "get custom job", IsTransientError, func() error {
			var err error
			job, err = client.GetCustomJob(ctx, name)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				o.cancel(ctx, client, name)
				return ctx.Err()
			}
			return err
		}

		if job.State != lastState {
			logging.Info("Custom job %s is %s", name, job.State)
			lastState = job.State
		}
		if job.State == StateSucceeded {
			logging.Info("Custom job %s completed successfully.", name)
			return nil
		}
		if errorStates[job.State] {
			jobErr := &JobError{Name: name, State: job.State}
			if job.Error != nil {
				jobErr.Message = job.Error.Message
			}
			return jobErr
		}

		select {
		case <-ctx.Done():
			o.cancel(ctx, client, name)
			return ctx.Err()
		case <-time.After(o.pollInterval):
		}
	}
}

// cancel requests cancellation of the job. Failures are logged only.
func (o *VertexOrchestrator) cancel(ctx context.Context, client JobClient, name string) {
	cctx, stop := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
	defer stop()
	logging.Warn("Cancelling custom job %s", name)
	if err := client.CancelCustomJob(cctx, name); err != nil {
		logging.Error("Failed to cancel custom job %s: %v", name, err)
	}
}
