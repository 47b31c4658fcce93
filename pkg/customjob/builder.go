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

// Package customjob wraps container-based components so that they run as
// Vertex AI custom training jobs.
//
// Build turns a component into a launcher component whose single argument of
// interest is the serialized job payload. The transformation is pure: it never
// mutates its input and performs no I/O, so it is safe for concurrent use.
package customjob

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"customjob-toolkit/pkg/component"
)

const (
	// JobType is the launcher --type value for custom jobs.
	JobType = "CustomJob"
	// LauncherModule is the module the launcher image runs.
	LauncherModule = "google_cloud_pipeline_components.container.v1.custom_job.launcher"
	// ResourceHandleOutput is the output that receives the submitted job's resource handle.
	ResourceHandleOutput = "gcp_resources"

	// JSONEscapedExecutorInput replaces the executor input placeholder so that
	// the substituted value stays valid inside the JSON payload.
	JSONEscapedExecutorInput = "{{$.json_escape[1]}}"
)

// Inputs added to every wrapper component.
const (
	InputBaseOutputDirectory = "base_output_directory"
	InputTensorboard         = "tensorboard"
	InputNetwork             = "network"
	InputServiceAccount      = "service_account"
	InputProject             = "project"
	InputLocation            = "location"
)

const wrapperDescriptionTemplate = `A custom job that wraps {{.Name}}.
{{- if .Original}}

Original component description:
{{.Original}}
{{- end}}

Custom Job wrapper description:
Launch a Custom training job using Vertex CustomJob API.`

var wrapperDescription = template.Must(template.New("description").Parse(wrapperDescriptionTemplate))

// LauncherCommand returns the command of every wrapper component.
func LauncherCommand() []string {
	return []string{"python3", "-u", "-m", LauncherModule}
}

// Build returns a new component that launches task as a custom job configured
// by opts. It fails with *InvalidTaskError when task is not container based;
// no other option validation is done.
func Build(task *component.Spec, opts Options) (*component.Spec, error) {
	payload, err := NewPayload(task, opts)
	if err != nil {
		return nil, err
	}
	encoded, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	return wrap(task, opts, encoded, []component.Input{
		stringInput(InputBaseOutputDirectory, opts.BaseOutputDirectory),
		stringInput(InputTensorboard, opts.Tensorboard),
		stringInput(InputNetwork, opts.Network),
		stringInput(InputServiceAccount, opts.ServiceAccount),
	})
}

// wrap assembles the launcher component around an encoded payload. added
// inputs go between the task's own inputs and project/location.
func wrap(task *component.Spec, opts Options, encoded string, added []component.Input) (*component.Spec, error) {
	src := task.DeepCopy()
	name := strings.ToLower(src.Name)

	var desc bytes.Buffer
	if err := wrapperDescription.Execute(&desc, struct {
		Name     string
		Original string
	}{Name: name, Original: src.Description}); err != nil {
		return nil, fmt.Errorf("failed to render description of %q: %w", src.Name, err)
	}

	inputs := append(src.Inputs, added...)
	inputs = append(inputs,
		component.Input{Name: InputProject, Type: component.TypeString},
		component.Input{Name: InputLocation, Type: component.TypeString},
	)

	outputs := append(src.Outputs, component.Output{Name: ResourceHandleOutput, Type: component.TypeString})

	return &component.Spec{
		Name:        name,
		Description: desc.String(),
		Inputs:      inputs,
		Outputs:     outputs,
		Implementation: component.Implementation{Container: &component.Container{
			Image:   opts.LauncherImage,
			Command: component.Literals(LauncherCommand()...),
			Args: []component.Arg{
				component.Literal("--type"), component.Literal(JobType),
				component.Literal("--payload"), component.Literal(encoded),
				component.Literal("--project"), component.InputValue(InputProject),
				component.Literal("--location"), component.InputValue(InputLocation),
				component.Literal("--gcp_resources"), component.OutputPath(ResourceHandleOutput),
			},
		}},
	}, nil
}

func stringInput(name, value string) component.Input {
	return component.Input{Name: name, Type: component.TypeString, Default: value, Optional: true}
}

// NewPayload builds the job payload Build embeds for task.
func NewPayload(task *component.Spec, opts Options) (CustomJobPayload, error) {
	if err := checkTask(task); err != nil {
		return CustomJobPayload{}, err
	}
	opts = opts.withDefaults()

	spec := JobSpec{
		WorkerPoolSpecs:     WorkerPoolSpecs(task, opts),
		ServiceAccount:      inputParameter(InputServiceAccount),
		Network:             inputParameter(InputNetwork),
		Tensorboard:         inputParameter(InputTensorboard),
		BaseOutputDirectory: OutputDirectory{OutputURIPrefix: inputParameter(InputBaseOutputDirectory)},
	}
	if opts.Timeout != "" || opts.RestartJobOnWorkerRestart {
		spec.Scheduling = &Scheduling{
			Timeout:                   opts.Timeout,
			RestartJobOnWorkerRestart: opts.RestartJobOnWorkerRestart,
		}
	}
	if len(opts.Labels) > 0 {
		spec.Labels = make(map[string]string, len(opts.Labels))
		for k, v := range opts.Labels {
			spec.Labels[k] = v
		}
	}
	if len(opts.ReservedIPRanges) > 0 {
		spec.ReservedIPRanges = append([]string(nil), opts.ReservedIPRanges...)
	}

	displayName := opts.DisplayName
	if displayName == "" {
		displayName = task.Name
	}
	return CustomJobPayload{DisplayName: displayName, JobSpec: spec}, nil
}

// WorkerPoolSpecs describes how the task's container is replicated. The first
// pool always holds exactly one replica; any further replicas go to a second,
// otherwise identical pool.
func WorkerPoolSpecs(task *component.Spec, opts Options) []WorkerPoolSpec {
	opts = opts.withDefaults()
	c := task.Implementation.Container

	primary := WorkerPoolSpec{
		MachineSpec:  MachineSpec{MachineType: opts.MachineType},
		ReplicaCount: 1,
		ContainerSpec: ContainerSpec{
			ImageURI: c.Image,
			Command:  escapeExecutorInput(task.RenderArgs(c.Command)),
			Args:     escapeExecutorInput(task.RenderArgs(c.Args)),
		},
		DiskSpec: DiskSpec{
			BootDiskType:   opts.BootDiskType,
			BootDiskSizeGB: opts.BootDiskSizeGB,
		},
	}
	if primary.ContainerSpec.Command == nil {
		primary.ContainerSpec.Command = []string{}
	}
	if opts.AcceleratorType != "" {
		count := opts.AcceleratorCount
		primary.MachineSpec.AcceleratorType = opts.AcceleratorType
		primary.MachineSpec.AcceleratorCount = &count
	}
	if len(opts.NFSMounts) > 0 {
		primary.NFSMounts = append([]NFSMount(nil), opts.NFSMounts...)
	}

	specs := []WorkerPoolSpec{primary}
	if opts.ReplicaCount > 1 {
		rest := primary.clone()
		rest.ReplicaCount = opts.ReplicaCount - 1
		specs = append(specs, rest)
	}
	return specs
}

func checkTask(task *component.Spec) error {
	if task == nil {
		return &InvalidTaskError{Reason: "no component given"}
	}
	if !task.IsContainerBased() {
		return &InvalidTaskError{Name: task.Name, Reason: "only container-based components can run as custom jobs"}
	}
	return nil
}

func inputParameter(name string) string {
	return fmt.Sprintf("{{$.inputs.parameters['%s']}}", name)
}

func escapeExecutorInput(values []string) []string {
	for i, v := range values {
		values[i] = strings.ReplaceAll(v, component.ExecutorInputPlaceholder, JSONEscapedExecutorInput)
	}
	return values
}
