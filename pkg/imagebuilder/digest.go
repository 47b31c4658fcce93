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

// Package imagebuilder resolves container image references for generated
// components.
package imagebuilder

import (
	"fmt"
	"strings"

	"customjob-toolkit/pkg/logging"

	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
)

// DockerPlatform represents the target platform for a Docker image.
type DockerPlatform string

const (
	LinuxAMD64 DockerPlatform = "linux/amd64"
	LinuxARM64 DockerPlatform = "linux/arm64"
)

// DigestResolver returns the manifest digest ("sha256:...") an image reference
// currently points to.
type DigestResolver func(ref string) (string, error)

// NewCraneResolver resolves digests against the registry. An empty platform
// selects the registry's default manifest.
func NewCraneResolver(platform DockerPlatform) (DigestResolver, error) {
	var opts []crane.Option
	if platform != "" {
		p, err := parsePlatform(string(platform))
		if err != nil {
			return nil, err
		}
		opts = append(opts, crane.WithPlatform(&p))
	}
	return func(ref string) (string, error) {
		return crane.Digest(ref, opts...)
	}, nil
}

// PinDigest rewrites image to the immutable "<repository>@<digest>" form so
// that every replica of a job runs the same image. References that already
// carry a digest are returned unchanged.
func PinDigest(image string, resolve DigestResolver) (string, error) {
	ref, err := name.ParseReference(image)
	if err != nil {
		return "", fmt.Errorf("failed to parse image reference %q: %w", image, err)
	}
	if _, ok := ref.(name.Digest); ok {
		return image, nil
	}

	digest, err := resolve(ref.String())
	if err != nil {
		return "", fmt.Errorf("failed to resolve digest of %q: %w", image, err)
	}
	pinned, err := name.NewDigest(ref.Context().Name() + "@" + digest)
	if err != nil {
		return "", fmt.Errorf("registry returned an invalid digest %q for %q: %w", digest, image, err)
	}
	logging.Info("Pinned image %s to %s", image, pinned.String())
	return pinned.String(), nil
}

// parsePlatform converts a platform string (e.g., "linux/amd64") into a v1.Platform struct.
func parsePlatform(platformStr string) (v1.Platform, error) {
	parts := strings.Split(platformStr, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return v1.Platform{}, fmt.Errorf("invalid platform format: %q, expected \"os/arch\"", platformStr)
	}
	return v1.Platform{
		OS:           parts[0],
		Architecture: parts[1],
	}, nil
}
