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
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"customjob-toolkit/pkg/orchestrator"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"google.golang.org/api/aiplatform/v1"
	"google.golang.org/api/googleapi"
)

const (
	testJobName = "projects/p/locations/us-central1/customJobs/123"
	testPayload = `{"display_name": "train", "job_spec": {"worker_pool_specs": [{"machine_spec": {"machine_type": "n1-standard-4", ` +
		`"accelerator_type": "NVIDIA_TESLA_T4", "accelerator_count": 1}, "replica_count": 1, ` +
		`"container_spec": {"image_uri": "img", "command": ["python", "train.py"], "args": ["--epochs", "3"]}, ` +
		`"disk_spec": {"boot_disk_type": "pd-ssd", "boot_disk_size_gb": 100}}, ` +
		`{"machine_spec": {"machine_type": "n1-standard-4", "accelerator_type": "NVIDIA_TESLA_T4", "accelerator_count": 1}, ` +
		`"replica_count": 3, "container_spec": {"image_uri": "img", "command": ["python", "train.py"], "args": ["--epochs", "3"]}, ` +
		`"disk_spec": {"boot_disk_type": "pd-ssd", "boot_disk_size_gb": 100}}], ` +
		`"scheduling": {"timeout": 3600}, "labels": {"team": "ml"}, "service_account": "sa@p.iam.gserviceaccount.com", ` +
		`"network": "", "tensorboard": "", "base_output_directory": {"output_uri_prefix": "gs://bucket/out"}}}`
)

type getResult struct {
	state string
	err   error
}

type fakeClient struct {
	mu        sync.Mutex
	created   []*aiplatform.GoogleCloudAiplatformV1CustomJob
	parents   []string
	createErr []error
	gets      []getResult
	getCalls  int
	cancelled []string
	jobError  *aiplatform.GoogleRpcStatus
	// block makes GetCustomJob report a running job forever.
	block bool

	// createCalls counts every create request, failed ones included.
	createCalls int
}

func (f *fakeClient) CreateCustomJob(_ context.Context, parent string, job *aiplatform.GoogleCloudAiplatformV1CustomJob) (*aiplatform.GoogleCloudAiplatformV1CustomJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if len(f.createErr) > 0 {
		err := f.createErr[0]
		f.createErr = f.createErr[1:]
		if err != nil {
			return nil, err
		}
	}
	f.parents = append(f.parents, parent)
	f.created = append(f.created, job)
	out := *job
	out.Name = testJobName
	return &out, nil
}

func (f *fakeClient) GetCustomJob(_ context.Context, name string) (*aiplatform.GoogleCloudAiplatformV1CustomJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.block || len(f.gets) == 0 {
		return &aiplatform.GoogleCloudAiplatformV1CustomJob{Name: name, State: "JOB_STATE_RUNNING"}, nil
	}
	r := f.gets[0]
	f.gets = f.gets[1:]
	if r.err != nil {
		return nil, r.err
	}
	job := &aiplatform.GoogleCloudAiplatformV1CustomJob{Name: name, State: r.state}
	if errorStates[r.state] {
		job.Error = f.jobError
	}
	return job, nil
}

func (f *fakeClient) CancelCustomJob(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, name)
	return nil
}

func newTestOrchestrator(fs afero.Fs, client *fakeClient) *VertexOrchestrator {
	return NewVertexOrchestrator(
		WithFs(fs),
		WithPollInterval(time.Millisecond),
		WithRetryConfig(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}),
		WithClientFactory(func(context.Context, string) (JobClient, error) { return client, nil }),
	)
}

func testRequest() orchestrator.JobRequest {
	return orchestrator.JobRequest{
		Type:         "CustomJob",
		Project:      "p",
		Location:     "us-central1",
		Payload:      testPayload,
		GcpResources: "/outputs/gcp_resources",
	}
}

func assertResourceHandle(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("failed to read resource handle: %v", err)
	}
	want := `{"resources":[{"resourceType":"CustomJob","resourceUri":"https://us-central1-aiplatform.googleapis.com/v1/` + testJobName + `"}]}`
	if string(content) != want {
		t.Errorf("resource handle = %s, want %s", content, want)
	}
}

func TestSubmitJobSucceeds(t *testing.T) {
	fs := afero.NewMemMapFs()
	client := &fakeClient{gets: []getResult{{state: "JOB_STATE_PENDING"}, {state: "JOB_STATE_RUNNING"}, {state: StateSucceeded}}}

	if err := newTestOrchestrator(fs, client).SubmitJob(context.Background(), testRequest()); err != nil {
		t.Fatalf("SubmitJob failed: %v", err)
	}
	if len(client.created) != 1 {
		t.Fatalf("created %d jobs, want 1", len(client.created))
	}
	if client.parents[0] != "projects/p/locations/us-central1" {
		t.Errorf("parent = %q", client.parents[0])
	}
	if client.getCalls != 3 {
		t.Errorf("polled %d times, want 3", client.getCalls)
	}
	assertResourceHandle(t, fs, "/outputs/gcp_resources")
}

func TestSubmitJobConvertsPayload(t *testing.T) {
	client := &fakeClient{gets: []getResult{{state: StateSucceeded}}}
	if err := newTestOrchestrator(afero.NewMemMapFs(), client).SubmitJob(context.Background(), testRequest()); err != nil {
		t.Fatalf("SubmitJob failed: %v", err)
	}

	pool := &aiplatform.GoogleCloudAiplatformV1WorkerPoolSpec{
		MachineSpec:   &aiplatform.GoogleCloudAiplatformV1MachineSpec{MachineType: "n1-standard-4", AcceleratorType: "NVIDIA_TESLA_T4", AcceleratorCount: 1},
		ReplicaCount:  1,
		ContainerSpec: &aiplatform.GoogleCloudAiplatformV1ContainerSpec{ImageUri: "img", Command: []string{"python", "train.py"}, Args: []string{"--epochs", "3"}},
		DiskSpec:      &aiplatform.GoogleCloudAiplatformV1DiskSpec{BootDiskType: "pd-ssd", BootDiskSizeGb: 100},
	}
	second := *pool
	second.ReplicaCount = 3
	want := &aiplatform.GoogleCloudAiplatformV1CustomJob{
		DisplayName: "train",
		Labels:      map[string]string{"team": "ml"},
		JobSpec: &aiplatform.GoogleCloudAiplatformV1CustomJobSpec{
			WorkerPoolSpecs:     []*aiplatform.GoogleCloudAiplatformV1WorkerPoolSpec{pool, &second},
			Scheduling:          &aiplatform.GoogleCloudAiplatformV1Scheduling{Timeout: "3600s"},
			ServiceAccount:      "sa@p.iam.gserviceaccount.com",
			BaseOutputDirectory: &aiplatform.GoogleCloudAiplatformV1GcsDestination{OutputUriPrefix: "gs://bucket/out"},
		},
	}
	got := client.created[0]
	// Compare what would be sent on the wire.
	wantJSON, _ := want.MarshalJSON()
	gotJSON, _ := got.MarshalJSON()
	if diff := cmp.Diff(string(wantJSON), string(gotJSON)); diff != "" {
		t.Errorf("created job mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(string(gotJSON), `"replicaCount":"3"`) {
		t.Errorf("replica count not sent as an int64 string: %s", gotJSON)
	}
}

func TestSubmitJobErrorStates(t *testing.T) {
	for _, state := range []string{StateFailed, StateCancelled, StatePaused, StateExpired} {
		t.Run(state, func(t *testing.T) {
			client := &fakeClient{
				gets:     []getResult{{state: "JOB_STATE_RUNNING"}, {state: state}},
				jobError: &aiplatform.GoogleRpcStatus{Code: 3, Message: "boom"},
			}
			err := newTestOrchestrator(afero.NewMemMapFs(), client).SubmitJob(context.Background(), testRequest())
			var jobErr *JobError
			if !errors.As(err, &jobErr) {
				t.Fatalf("SubmitJob error = %v, want *JobError", err)
			}
			if jobErr.State != state || jobErr.Message != "boom" || jobErr.Name != testJobName {
				t.Errorf("JobError = %+v", jobErr)
			}
		})
	}
}

func TestSubmitJobRetriesTransientErrors(t *testing.T) {
	client := &fakeClient{
		createErr: []error{&googleapi.Error{Code: http.StatusTooManyRequests}},
		gets: []getResult{
			{err: &googleapi.Error{Code: http.StatusTooManyRequests}},
			{err: &googleapi.Error{Code: http.StatusInternalServerError}},
			{state: StateSucceeded},
		},
	}
	if err := newTestOrchestrator(afero.NewMemMapFs(), client).SubmitJob(context.Background(), testRequest()); err != nil {
		t.Fatalf("SubmitJob failed: %v", err)
	}
	if len(client.created) != 1 {
		t.Errorf("created %d jobs, want 1", len(client.created))
	}
	if client.createCalls != 2 {
		t.Errorf("create called %d times, want 2", client.createCalls)
	}
}

func TestSubmitJobDoesNotRetryCreateOnServerError(t *testing.T) {
	tests := map[string]error{
		"unavailable": &googleapi.Error{Code: http.StatusServiceUnavailable},
		"internal":    &googleapi.Error{Code: http.StatusInternalServerError},
		"network":     &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset")},
	}
	for name, createErr := range tests {
		t.Run(name, func(t *testing.T) {
			client := &fakeClient{createErr: []error{createErr, nil}}
			fs := afero.NewMemMapFs()
			err := newTestOrchestrator(fs, client).SubmitJob(context.Background(), testRequest())
			if !errors.Is(err, createErr) {
				t.Fatalf("SubmitJob error = %v, want %v", err, createErr)
			}
			if client.createCalls != 1 {
				t.Errorf("create called %d times, want 1", client.createCalls)
			}
			if client.getCalls != 0 {
				t.Errorf("polled %d times for a job that may not exist", client.getCalls)
			}
			if exists, _ := afero.Exists(fs, "/outputs/gcp_resources"); exists {
				t.Error("resource handle written for a failed create")
			}
		})
	}
}

func TestSubmitJobNonTransientError(t *testing.T) {
	client := &fakeClient{createErr: []error{&googleapi.Error{Code: http.StatusForbidden, Message: "denied"}}}
	fs := afero.NewMemMapFs()
	err := newTestOrchestrator(fs, client).SubmitJob(context.Background(), testRequest())
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusForbidden {
		t.Fatalf("SubmitJob error = %v, want a 403 API error", err)
	}
	if exists, _ := afero.Exists(fs, "/outputs/gcp_resources"); exists {
		t.Error("resource handle written for a job that was never created")
	}
}

func TestSubmitJobRetryLimit(t *testing.T) {
	unavailable := &googleapi.Error{Code: http.StatusServiceUnavailable}
	client := &fakeClient{gets: []getResult{{err: unavailable}, {err: unavailable}, {err: unavailable}, {state: StateSucceeded}}}
	err := newTestOrchestrator(afero.NewMemMapFs(), client).SubmitJob(context.Background(), testRequest())
	if err == nil {
		t.Fatal("SubmitJob succeeded after the retry limit was exceeded")
	}
	if client.getCalls != 3 {
		t.Errorf("GetCustomJob called %d times, want 3", client.getCalls)
	}
}

func TestSubmitJobResumes(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := writeResourceHandle(fs, "/outputs/gcp_resources", "us-central1", testJobName); err != nil {
		t.Fatalf("failed to write resource handle: %v", err)
	}
	client := &fakeClient{gets: []getResult{{state: StateSucceeded}}}

	req := testRequest()
	req.Payload = "not json"
	if err := newTestOrchestrator(fs, client).SubmitJob(context.Background(), req); err != nil {
		t.Fatalf("SubmitJob failed: %v", err)
	}
	if len(client.created) != 0 {
		t.Errorf("created %d jobs while resuming, want 0", len(client.created))
	}
}

func TestSubmitJobMalformedResources(t *testing.T) {
	tests := map[string]string{
		"not json":       "{",
		"two resources":  `{"resources":[{"resourceType":"CustomJob","resourceUri":"a"},{"resourceType":"CustomJob","resourceUri":"b"}]}`,
		"wrong type":     `{"resources":[{"resourceType":"BatchPredictionJob","resourceUri":"https://x/v1/projects/p/locations/l/customJobs/1"}]}`,
		"bad uri":        `{"resources":[{"resourceType":"CustomJob","resourceUri":"https://x/v1/projects/p"}]}`,
		"empty resource": `{"resources":[]}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if err := afero.WriteFile(fs, "/outputs/gcp_resources", []byte(content), 0644); err != nil {
				t.Fatalf("failed to write file: %v", err)
			}
			client := &fakeClient{}
			err := newTestOrchestrator(fs, client).SubmitJob(context.Background(), testRequest())
			if !errors.Is(err, ErrMalformedResources) {
				t.Errorf("SubmitJob error = %v, want ErrMalformedResources", err)
			}
			if len(client.created) != 0 {
				t.Errorf("created %d jobs, want 0", len(client.created))
			}
		})
	}
}

func TestSubmitJobInvalidRequest(t *testing.T) {
	tests := map[string]func(*orchestrator.JobRequest){
		"no project":       func(r *orchestrator.JobRequest) { r.Project = "" },
		"no location":      func(r *orchestrator.JobRequest) { r.Location = "" },
		"no gcp_resources": func(r *orchestrator.JobRequest) { r.GcpResources = "" },
		"bad payload":      func(r *orchestrator.JobRequest) { r.Payload = `{"display_name": 1}` },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			req := testRequest()
			mutate(&req)
			client := &fakeClient{}
			if err := newTestOrchestrator(afero.NewMemMapFs(), client).SubmitJob(context.Background(), req); err == nil {
				t.Error("SubmitJob succeeded, want error")
			}
			if len(client.created) != 0 {
				t.Errorf("created %d jobs, want 0", len(client.created))
			}
		})
	}
}

func TestSubmitJobCancelsOnContextDone(t *testing.T) {
	client := &fakeClient{block: true}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := newTestOrchestrator(afero.NewMemMapFs(), client).SubmitJob(ctx, testRequest())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("SubmitJob error = %v, want context.DeadlineExceeded", err)
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	if diff := cmp.Diff([]string{testJobName}, client.cancelled); diff != "" {
		t.Errorf("cancelled jobs mismatch (-want +got):\n%s", diff)
	}
}

func TestIsRetryableCreate(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("plain"), false},
		{&googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{&googleapi.Error{Code: http.StatusServiceUnavailable}, false},
		{&googleapi.Error{Code: http.StatusInternalServerError}, false},
		{&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, false},
	}
	for _, tt := range tests {
		if got := IsRetryableCreate(tt.err); got != tt.want {
			t.Errorf("IsRetryableCreate(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("plain"), false},
		{&googleapi.Error{Code: http.StatusBadRequest}, false},
		{&googleapi.Error{Code: http.StatusNotFound}, false},
		{&googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{&googleapi.Error{Code: http.StatusBadGateway}, true},
	}
	for _, tt := range tests {
		if got := IsTransientError(tt.err); got != tt.want {
			t.Errorf("IsTransientError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
