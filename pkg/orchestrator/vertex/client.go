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

package vertex

import (
	"context"
	"fmt"

	"google.golang.org/api/aiplatform/v1"
	"google.golang.org/api/option"
)

// JobClient is the subset of the Vertex AI API the orchestrator needs.
type JobClient interface {
	CreateCustomJob(ctx context.Context, parent string, job *aiplatform.GoogleCloudAiplatformV1CustomJob) (*aiplatform.GoogleCloudAiplatformV1CustomJob, error)
	GetCustomJob(ctx context.Context, name string) (*aiplatform.GoogleCloudAiplatformV1CustomJob, error)
	CancelCustomJob(ctx context.Context, name string) error
}

// ClientFactory returns a client talking to the regional endpoint of location.
type ClientFactory func(ctx context.Context, location string) (JobClient, error)

// Endpoint returns the regional API endpoint of location.
func Endpoint(location string) string {
	return fmt.Sprintf("https://%s-aiplatform.googleapis.com/", location)
}

type apiClient struct {
	jobs *aiplatform.ProjectsLocationsCustomJobsService
}

// NewAPIClient creates a client authenticated with application default credentials.
func NewAPIClient(ctx context.Context, location string, opts ...option.ClientOption) (JobClient, error) {
	opts = append([]option.ClientOption{option.WithEndpoint(Endpoint(location))}, opts...)
	svc, err := aiplatform.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client for %s: %w", location, err)
	}
	return &apiClient{jobs: svc.Projects.Locations.CustomJobs}, nil
}

func (c *apiClient) CreateCustomJob(ctx context.Context, parent string, job *aiplatform.GoogleCloudAiplatformV1CustomJob) (*aiplatform.GoogleCloudAiplatformV1CustomJob, error) {
	return c.jobs.Create(parent, job).Context(ctx).Do()
}

func (c *apiClient) GetCustomJob(ctx context.Context, name string) (*aiplatform.GoogleCloudAiplatformV1CustomJob, error) {
	return c.jobs.Get(name).Context(ctx).Do()
}

func (c *apiClient) CancelCustomJob(ctx context.Context, name string) error {
	_, err := c.jobs.Cancel(name, &aiplatform.GoogleCloudAiplatformV1CancelCustomJobRequest{}).Context(ctx).Do()
	return err
}
