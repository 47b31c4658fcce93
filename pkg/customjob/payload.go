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
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CustomJobPayload is the job body handed to the launcher. Field order is part
// of the wire contract with the job submission API.
type CustomJobPayload struct {
	DisplayName string  `json:"display_name"`
	JobSpec     JobSpec `json:"job_spec"`
}

// JobSpec describes how the job runs.
type JobSpec struct {
	WorkerPoolSpecs     []WorkerPoolSpec  `json:"worker_pool_specs"`
	Scheduling          *Scheduling       `json:"scheduling,omitempty"`
	Labels              map[string]string `json:"labels,omitempty"`
	ReservedIPRanges    []string          `json:"reserved_ip_ranges,omitempty"`
	ServiceAccount      string            `json:"service_account"`
	Network             string            `json:"network"`
	Tensorboard         string            `json:"tensorboard"`
	BaseOutputDirectory OutputDirectory   `json:"base_output_directory"`
}

// Scheduling controls job timeout and restart behaviour.
type Scheduling struct {
	Timeout                   Duration `json:"timeout,omitempty"`
	RestartJobOnWorkerRestart bool     `json:"restart_job_on_worker_restart,omitempty"`
}

// OutputDirectory is the storage prefix jobs write their outputs under.
type OutputDirectory struct {
	OutputURIPrefix string `json:"output_uri_prefix"`
}

// WorkerPoolSpec is one homogeneous group of replicas.
type WorkerPoolSpec struct {
	MachineSpec   MachineSpec   `json:"machine_spec"`
	ReplicaCount  int           `json:"replica_count"`
	ContainerSpec ContainerSpec `json:"container_spec"`
	DiskSpec      DiskSpec      `json:"disk_spec"`
	NFSMounts     []NFSMount    `json:"nfs_mounts,omitempty"`
}

type MachineSpec struct {
	MachineType      string `json:"machine_type"`
	AcceleratorType  string `json:"accelerator_type,omitempty"`
	AcceleratorCount *int   `json:"accelerator_count,omitempty"`
}

type ContainerSpec struct {
	ImageURI string   `json:"image_uri"`
	Command  []string `json:"command"`
	Args     []string `json:"args,omitempty"`
}

type DiskSpec struct {
	BootDiskType   string `json:"boot_disk_type"`
	BootDiskSizeGB int    `json:"boot_disk_size_gb"`
}

// NFSMount is an NFS share mounted into every replica of a pool.
type NFSMount struct {
	Server     string `json:"server" yaml:"server"`
	Path       string `json:"path" yaml:"path"`
	MountPoint string `json:"mount_point,omitempty" yaml:"mount_point,omitempty"`
}

// clone returns a copy of the spec that shares no slices with it.
func (w WorkerPoolSpec) clone() WorkerPoolSpec {
	out := w
	if w.MachineSpec.AcceleratorCount != nil {
		n := *w.MachineSpec.AcceleratorCount
		out.MachineSpec.AcceleratorCount = &n
	}
	out.ContainerSpec.Command = append([]string(nil), w.ContainerSpec.Command...)
	if w.ContainerSpec.Args != nil {
		out.ContainerSpec.Args = append([]string(nil), w.ContainerSpec.Args...)
	}
	if w.NFSMounts != nil {
		out.NFSMounts = append([]NFSMount(nil), w.NFSMounts...)
	}
	return out
}

// Duration is a job timeout. A whole number of seconds ("3600") is written as
// a JSON number; anything else (for example "2s" or "1.5h") is written as a
// JSON string.
type Duration string

// Seconds builds a Duration from a whole number of seconds.
func Seconds(n int64) Duration {
	return Duration(strconv.FormatInt(n, 10))
}

// seconds returns the value as a number of seconds when it is written only of
// digits and fits an int64.
func (d Duration) seconds() (int64, bool) {
	if d == "" {
		return 0, false
	}
	for _, r := range string(d) {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(string(d), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// APIString converts the timeout to the API duration form "<n>s". Bare
// seconds and anything time.ParseDuration accepts are converted; other values
// are passed through for the API to reject.
func (d Duration) APIString() string {
	if n, ok := d.seconds(); ok {
		return strconv.FormatInt(n, 10) + "s"
	}
	if parsed, err := time.ParseDuration(string(d)); err == nil {
		return strconv.FormatFloat(parsed.Seconds(), 'f', -1, 64) + "s"
	}
	return string(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	if n, ok := d.seconds(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(d))
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = Duration(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("timeout must be a number of seconds or a duration string: %w", err)
	}
	*d = Duration(n.String())
	return nil
}

// UnmarshalYAML accepts `timeout: 2` as well as `timeout: 2s`.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: timeout must be a scalar", node.Line)
	}
	*d = Duration(strings.TrimSpace(node.Value))
	return nil
}
