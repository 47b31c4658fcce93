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
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

const customJobResourceType = "CustomJob"

// ErrMalformedResources is returned when an existing resource handle file
// cannot be resumed from.
var ErrMalformedResources = errors.New("malformed gcp_resources file")

var customJobURI = regexp.MustCompile(`^https://[^/]+/v1/(projects/[^/]+/locations/[^/]+/customJobs/[^/]+)$`)

type resources struct {
	Resources []resource `json:"resources"`
}

type resource struct {
	ResourceType string `json:"resourceType"`
	ResourceURI  string `json:"resourceUri"`
}

// ResourceURI returns the URI recorded for the job with the given resource name.
func ResourceURI(location, jobName string) string {
	return fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1/%s", location, jobName)
}

// writeResourceHandle records the created job so that a retried launch can
// resume it.
func writeResourceHandle(fs afero.Fs, path, location, jobName string) error {
	content, err := json.Marshal(resources{Resources: []resource{{
		ResourceType: customJobResourceType,
		ResourceURI:  ResourceURI(location, jobName),
	}}})
	if err != nil {
		return fmt.Errorf("failed to encode resource handle: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := afero.WriteFile(fs, path, content, 0644); err != nil {
		return fmt.Errorf("failed to write resource handle to %s: %w", path, err)
	}
	return nil
}

// readResourceHandle returns the job name recorded at path, or "" when there
// is nothing to resume.
func readResourceHandle(fs afero.Fs, path string) (string, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		if exists, _ := afero.Exists(fs, path); !exists {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return "", nil
	}

	var r resources
	if err := json.Unmarshal(content, &r); err != nil {
		return "", fmt.Errorf("%w %s: %v", ErrMalformedResources, path, err)
	}
	if len(r.Resources) != 1 {
		return "", fmt.Errorf("%w %s: want exactly one resource, got %d", ErrMalformedResources, path, len(r.Resources))
	}
	res := r.Resources[0]
	if res.ResourceType != customJobResourceType {
		return "", fmt.Errorf("%w %s: resource type %q is not %s", ErrMalformedResources, path, res.ResourceType, customJobResourceType)
	}
	m := customJobURI.FindStringSubmatch(res.ResourceURI)
	if m == nil {
		return "", fmt.Errorf("%w %s: unexpected resource URI %q", ErrMalformedResources, path, res.ResourceURI)
	}
	return m[1], nil
}
