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
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMachineType      = "n1-standard-4"
	DefaultBootDiskType     = "pd-ssd"
	DefaultBootDiskSizeGB   = 100
	DefaultReplicaCount     = 1
	DefaultAcceleratorCount = 1

	// DefaultLauncherImage runs the launcher module named in LauncherCommand.
	DefaultLauncherImage = "gcr.io/ml-pipeline/google-cloud-pipeline-components:latest"
)

// Options tune the generated job. The zero value of every field selects its default.
type Options struct {
	// Machine type of every replica, e.g. "n1-standard-8".
	MachineType string `yaml:"machine_type,omitempty"`
	// Accelerator attached to every replica, e.g. "NVIDIA_TESLA_T4". Unset means CPU only.
	AcceleratorType string `yaml:"accelerator_type,omitempty"`
	// Accelerators per replica. Only used together with AcceleratorType.
	AcceleratorCount int `yaml:"accelerator_count,omitempty"`
	// Boot disk type, "pd-ssd" or "pd-standard".
	BootDiskType   string `yaml:"boot_disk_type,omitempty"`
	BootDiskSizeGB int    `yaml:"boot_disk_size_gb,omitempty"`
	// Total number of replicas. Values above one add a second worker pool.
	ReplicaCount int `yaml:"replica_count,omitempty"`
	// Maximum job run time, seconds ("3600") or a duration string ("3600s").
	Timeout                   Duration `yaml:"timeout,omitempty"`
	RestartJobOnWorkerRestart bool     `yaml:"restart_job_on_worker_restart,omitempty"`

	// Defaults of the inputs the wrapper adds. The payload always reads them
	// from the inputs, so they stay overridable at run time.
	ServiceAccount      string `yaml:"service_account,omitempty"`
	Network             string `yaml:"network,omitempty"`
	Tensorboard         string `yaml:"tensorboard,omitempty"`
	BaseOutputDirectory string `yaml:"base_output_directory,omitempty"`

	// Job display name. Defaults to the component name.
	DisplayName      string            `yaml:"display_name,omitempty"`
	Labels           map[string]string `yaml:"labels,omitempty"`
	ReservedIPRanges []string          `yaml:"reserved_ip_ranges,omitempty"`
	NFSMounts        []NFSMount        `yaml:"nfs_mounts,omitempty"`

	// Image that runs the launcher.
	LauncherImage string `yaml:"launcher_image,omitempty"`
}

func (o Options) withDefaults() Options {
	if o.MachineType == "" {
		o.MachineType = DefaultMachineType
	}
	if o.AcceleratorCount == 0 {
		o.AcceleratorCount = DefaultAcceleratorCount
	}
	if o.BootDiskType == "" {
		o.BootDiskType = DefaultBootDiskType
	}
	if o.BootDiskSizeGB == 0 {
		o.BootDiskSizeGB = DefaultBootDiskSizeGB
	}
	if o.ReplicaCount == 0 {
		o.ReplicaCount = DefaultReplicaCount
	}
	if o.LauncherImage == "" {
		o.LauncherImage = DefaultLauncherImage
	}
	return o
}

// Merge returns o with every non-zero field of override applied on top.
func (o Options) Merge(override Options) Options {
	if override.MachineType != "" {
		o.MachineType = override.MachineType
	}
	if override.AcceleratorType != "" {
		o.AcceleratorType = override.AcceleratorType
	}
	if override.AcceleratorCount != 0 {
		o.AcceleratorCount = override.AcceleratorCount
	}
	if override.BootDiskType != "" {
		o.BootDiskType = override.BootDiskType
	}
	if override.BootDiskSizeGB != 0 {
		o.BootDiskSizeGB = override.BootDiskSizeGB
	}
	if override.ReplicaCount != 0 {
		o.ReplicaCount = override.ReplicaCount
	}
	if override.Timeout != "" {
		o.Timeout = override.Timeout
	}
	if override.RestartJobOnWorkerRestart {
		o.RestartJobOnWorkerRestart = true
	}
	if override.ServiceAccount != "" {
		o.ServiceAccount = override.ServiceAccount
	}
	if override.Network != "" {
		o.Network = override.Network
	}
	if override.Tensorboard != "" {
		o.Tensorboard = override.Tensorboard
	}
	if override.BaseOutputDirectory != "" {
		o.BaseOutputDirectory = override.BaseOutputDirectory
	}
	if override.DisplayName != "" {
		o.DisplayName = override.DisplayName
	}
	if len(override.Labels) > 0 {
		merged := make(map[string]string, len(o.Labels)+len(override.Labels))
		for k, v := range o.Labels {
			merged[k] = v
		}
		for k, v := range override.Labels {
			merged[k] = v
		}
		o.Labels = merged
	}
	if len(override.ReservedIPRanges) > 0 {
		o.ReservedIPRanges = override.ReservedIPRanges
	}
	if len(override.NFSMounts) > 0 {
		o.NFSMounts = override.NFSMounts
	}
	if override.LauncherImage != "" {
		o.LauncherImage = override.LauncherImage
	}
	return o
}

// LoadOptions reads builder options from a YAML file using the snake_case
// option names.
func LoadOptions(fs afero.Fs, path string) (Options, error) {
	var opts Options
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return opts, errors.Wrap(err, "read options file")
	}
	if err := yaml.Unmarshal(content, &opts); err != nil {
		return opts, errors.Wrapf(err, "parse options file %q", path)
	}
	return opts, nil
}
