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
	"customjob-toolkit/pkg/customjob"

	"google.golang.org/api/aiplatform/v1"
)

// toAPIJob converts a launcher payload to the API model. Labels move from the
// job spec to the job itself.
func toAPIJob(p customjob.CustomJobPayload) *aiplatform.GoogleCloudAiplatformV1CustomJob {
	spec := p.JobSpec
	apiSpec := &aiplatform.GoogleCloudAiplatformV1CustomJobSpec{
		ServiceAccount:   spec.ServiceAccount,
		Network:          spec.Network,
		Tensorboard:      spec.Tensorboard,
		ReservedIpRanges: spec.ReservedIPRanges,
	}
	if prefix := spec.BaseOutputDirectory.OutputURIPrefix; prefix != "" {
		apiSpec.BaseOutputDirectory = &aiplatform.GoogleCloudAiplatformV1GcsDestination{OutputUriPrefix: prefix}
	}
	if s := spec.Scheduling; s != nil {
		apiSpec.Scheduling = &aiplatform.GoogleCloudAiplatformV1Scheduling{
			Timeout:                   s.Timeout.APIString(),
			RestartJobOnWorkerRestart: s.RestartJobOnWorkerRestart,
		}
	}
	for _, w := range spec.WorkerPoolSpecs {
		apiSpec.WorkerPoolSpecs = append(apiSpec.WorkerPoolSpecs, toAPIWorkerPool(w))
	}

	return &aiplatform.GoogleCloudAiplatformV1CustomJob{
		DisplayName: p.DisplayName,
		Labels:      spec.Labels,
		JobSpec:     apiSpec,
	}
}

func toAPIWorkerPool(w customjob.WorkerPoolSpec) *aiplatform.GoogleCloudAiplatformV1WorkerPoolSpec {
	machine := &aiplatform.GoogleCloudAiplatformV1MachineSpec{
		MachineType:     w.MachineSpec.MachineType,
		AcceleratorType: w.MachineSpec.AcceleratorType,
	}
	if w.MachineSpec.AcceleratorCount != nil {
		machine.AcceleratorCount = int64(*w.MachineSpec.AcceleratorCount)
	}

	pool := &aiplatform.GoogleCloudAiplatformV1WorkerPoolSpec{
		MachineSpec:  machine,
		ReplicaCount: int64(w.ReplicaCount),
		ContainerSpec: &aiplatform.GoogleCloudAiplatformV1ContainerSpec{
			ImageUri: w.ContainerSpec.ImageURI,
			Command:  w.ContainerSpec.Command,
			Args:     w.ContainerSpec.Args,
		},
		DiskSpec: &aiplatform.GoogleCloudAiplatformV1DiskSpec{
			BootDiskType:   w.DiskSpec.BootDiskType,
			BootDiskSizeGb: int64(w.DiskSpec.BootDiskSizeGB),
		},
	}
	for _, m := range w.NFSMounts {
		pool.NfsMounts = append(pool.NfsMounts, &aiplatform.GoogleCloudAiplatformV1NfsMount{
			Server:     m.Server,
			Path:       m.Path,
			MountPoint: m.MountPoint,
		})
	}
	return pool
}
