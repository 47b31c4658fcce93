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

package customjob

import (
	"strings"

	"customjob-toolkit/pkg/component"
)

// Inputs added by BuildParameterized in addition to the ones Build adds.
const (
	InputDisplayName               = "display_name"
	InputWorkerPoolSpecs           = "worker_pool_specs"
	InputTimeout                   = "timeout"
	InputRestartJobOnWorkerRestart = "restart_job_on_worker_restart"
	InputReservedIPRanges          = "reserved_ip_ranges"
	InputLabels                    = "labels"
)

// DefaultTimeout is the timeout input default of parameterized components.
const DefaultTimeout = "604800s"

type parameterizedPayload struct {
	DisplayName string               `json:"display_name"`
	JobSpec     parameterizedJobSpec `json:"job_spec"`
}

// parameterizedJobSpec holds a placeholder in every field. The non-string
// ones are unquoted after encoding.
type parameterizedJobSpec struct {
	WorkerPoolSpecs     string                  `json:"worker_pool_specs"`
	Scheduling          parameterizedScheduling `json:"scheduling"`
	Labels              string                  `json:"labels"`
	ReservedIPRanges    string                  `json:"reserved_ip_ranges"`
	ServiceAccount      string                  `json:"service_account"`
	Network             string                  `json:"network"`
	Tensorboard         string                  `json:"tensorboard"`
	BaseOutputDirectory OutputDirectory         `json:"base_output_directory"`
}

type parameterizedScheduling struct {
	Timeout                   string `json:"timeout"`
	RestartJobOnWorkerRestart string `json:"restart_job_on_worker_restart"`
}

// nonStringInputs are substituted as JSON values rather than inside strings.
var nonStringInputs = []string{InputWorkerPoolSpecs, InputRestartJobOnWorkerRestart, InputLabels, InputReservedIPRanges}

// BuildParameterized is like Build, but every job setting becomes an optional
// input whose default is taken from opts, so pipelines can change worker pools,
// scheduling, labels and IP ranges per run. The payload is only valid JSON
// once the runtime has substituted the inputs.
func BuildParameterized(task *component.Spec, opts Options) (*component.Spec, error) {
	if err := checkTask(task); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	encoded, err := encodePython(parameterizedPayload{
		DisplayName: inputParameter(InputDisplayName),
		JobSpec: parameterizedJobSpec{
			WorkerPoolSpecs: inputParameter(InputWorkerPoolSpecs),
			Scheduling: parameterizedScheduling{
				Timeout:                   inputParameter(InputTimeout),
				RestartJobOnWorkerRestart: inputParameter(InputRestartJobOnWorkerRestart),
			},
			Labels:              inputParameter(InputLabels),
			ReservedIPRanges:    inputParameter(InputReservedIPRanges),
			ServiceAccount:      inputParameter(InputServiceAccount),
			Network:             inputParameter(InputNetwork),
			Tensorboard:         inputParameter(InputTensorboard),
			BaseOutputDirectory: OutputDirectory{OutputURIPrefix: inputParameter(InputBaseOutputDirectory)},
		},
	})
	if err != nil {
		return nil, err
	}
	for _, name := range nonStringInputs {
		ph := inputParameter(name)
		encoded = strings.ReplaceAll(encoded, `"`+ph+`"`, ph)
	}

	displayName := opts.DisplayName
	if displayName == "" {
		displayName = task.Name
	}
	timeout := DefaultTimeout
	if opts.Timeout != "" {
		timeout = opts.Timeout.APIString()
	}
	var pools []interface{}
	for _, w := range WorkerPoolSpecs(task, opts) {
		pools = append(pools, workerPoolDefault(w))
	}
	labels := map[string]interface{}{}
	for k, v := range opts.Labels {
		labels[k] = v
	}

	return wrap(task, opts, encoded, []component.Input{
		stringInput(InputDisplayName, displayName),
		{Name: InputWorkerPoolSpecs, Type: component.TypeList, Default: pools, Optional: true},
		stringInput(InputTimeout, timeout),
		{Name: InputRestartJobOnWorkerRestart, Type: component.TypeBoolean, Default: opts.RestartJobOnWorkerRestart, Optional: true},
		stringInput(InputServiceAccount, opts.ServiceAccount),
		stringInput(InputTensorboard, opts.Tensorboard),
		stringInput(InputNetwork, opts.Network),
		{Name: InputReservedIPRanges, Type: component.TypeList, Default: stringList(opts.ReservedIPRanges), Optional: true},
		stringInput(InputBaseOutputDirectory, opts.BaseOutputDirectory),
		{Name: InputLabels, Type: component.TypeDict, Default: labels, Optional: true},
	})
}

// workerPoolDefault renders a worker pool spec the way it is stored as an
// input default. Args is always present.
func workerPoolDefault(w WorkerPoolSpec) map[string]interface{} {
	machine := map[string]interface{}{"machine_type": w.MachineSpec.MachineType}
	if w.MachineSpec.AcceleratorType != "" {
		machine["accelerator_type"] = w.MachineSpec.AcceleratorType
	}
	if w.MachineSpec.AcceleratorCount != nil {
		machine["accelerator_count"] = *w.MachineSpec.AcceleratorCount
	}

	pool := map[string]interface{}{
		"machine_spec":  machine,
		"replica_count": w.ReplicaCount,
		"container_spec": map[string]interface{}{
			"image_uri": w.ContainerSpec.ImageURI,
			"command":   stringList(w.ContainerSpec.Command),
			"args":      stringList(w.ContainerSpec.Args),
		},
		"disk_spec": map[string]interface{}{
			"boot_disk_type":    w.DiskSpec.BootDiskType,
			"boot_disk_size_gb": w.DiskSpec.BootDiskSizeGB,
		},
	}
	if len(w.NFSMounts) > 0 {
		mounts := make([]interface{}, 0, len(w.NFSMounts))
		for _, m := range w.NFSMounts {
			mount := map[string]interface{}{"server": m.Server, "path": m.Path}
			if m.MountPoint != "" {
				mount["mount_point"] = m.MountPoint
			}
			mounts = append(mounts, mount)
		}
		pool["nfs_mounts"] = mounts
	}
	return pool
}

func stringList(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
