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

// Package run implements the build workflow behind the build command.
package run

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"customjob-toolkit/pkg/component"
	"customjob-toolkit/pkg/customjob"
	"customjob-toolkit/pkg/imagebuilder"
	"customjob-toolkit/pkg/logging"

	getter "github.com/hashicorp/go-getter"
	"github.com/spf13/afero"
)

// BuildOptions holds all the necessary parameters for the 'build' command logic
type BuildOptions struct {
	// Source is a local path or a go-getter address of the component YAML.
	Source string
	// Output is the path the wrapper component is written to. Empty means Stdout.
	Output string
	Stdout io.Writer
	// OptionsFile is an optional YAML file of builder options.
	OptionsFile string
	// Overrides are applied on top of the options file.
	Overrides customjob.Options
	// RestartOverride, when set, replaces the merged restart flag so that an
	// explicit false can undo a true from the options file.
	RestartOverride *bool
	// Parameterized exposes the job settings as component inputs.
	Parameterized  bool
	PinImageDigest bool
	Platform       imagebuilder.DockerPlatform
}

var (
	getFile     = func(dst, src string) error { return getter.GetFile(dst, src) }
	newResolver = imagebuilder.NewCraneResolver
)

var remotePrefixes = []string{"http://", "https://", "s3://", "gs://", "git@"}

func isRemote(src string) bool {
	if strings.Contains(src, "::") {
		return true
	}
	for _, p := range remotePrefixes {
		if strings.HasPrefix(src, p) {
			return true
		}
	}
	return false
}

// ExecuteBuild loads the source component, wraps it as a custom job and writes
// the result.
func ExecuteBuild(fs afero.Fs, opts BuildOptions) (*component.Spec, error) {
	logging.Info("Building custom job component from %s...", opts.Source)

	task, err := loadSource(fs, opts.Source)
	if err != nil {
		return nil, err
	}

	jobOpts := customjob.Options{}
	if opts.OptionsFile != "" {
		logging.Info("Reading builder options from %s", opts.OptionsFile)
		if jobOpts, err = customjob.LoadOptions(fs, opts.OptionsFile); err != nil {
			return nil, err
		}
	}
	jobOpts = jobOpts.Merge(opts.Overrides)
	if opts.RestartOverride != nil {
		jobOpts.RestartJobOnWorkerRestart = *opts.RestartOverride
	}

	if opts.PinImageDigest && task.IsContainerBased() {
		resolve, err := newResolver(opts.Platform)
		if err != nil {
			return nil, err
		}
		pinned, err := imagebuilder.PinDigest(task.Implementation.Container.Image, resolve)
		if err != nil {
			return nil, err
		}
		task = task.DeepCopy()
		task.Implementation.Container.Image = pinned
	}

	build := customjob.Build
	if opts.Parameterized {
		build = customjob.BuildParameterized
	}
	wrapped, err := build(task, jobOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to build custom job component: %w", err)
	}
	content, err := wrapped.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize component %q: %w", wrapped.Name, err)
	}

	if opts.Output == "" {
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		if _, err := out.Write(content); err != nil {
			return nil, fmt.Errorf("failed to write component: %w", err)
		}
		return wrapped, nil
	}

	if err := fs.MkdirAll(filepath.Dir(opts.Output), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", opts.Output, err)
	}
	if err := afero.WriteFile(fs, opts.Output, content, 0644); err != nil {
		return nil, fmt.Errorf("failed to write component to file %s: %w", opts.Output, err)
	}
	logging.Info("Custom job component saved to %s", opts.Output)
	return wrapped, nil
}

func loadSource(fs afero.Fs, src string) (*component.Spec, error) {
	if src == "" {
		return nil, fmt.Errorf("no component source given")
	}
	if !isRemote(src) {
		return component.LoadFile(fs, src)
	}

	dir, err := os.MkdirTemp("", "customjob-source-")
	if err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	defer os.RemoveAll(dir)

	dst := filepath.Join(dir, "component.yaml")
	logging.Info("Fetching component from %s", src)
	if err := getFile(dst, src); err != nil {
		return nil, fmt.Errorf("failed to fetch component %s: %w", src, err)
	}
	return component.LoadFile(afero.NewOsFs(), dst)
}
