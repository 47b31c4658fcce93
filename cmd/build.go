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

package cmd

import (
	"fmt"
	"os"
	"strings"

	"customjob-toolkit/pkg/customjob"
	"customjob-toolkit/pkg/imagebuilder"
	"customjob-toolkit/pkg/logging"
	"customjob-toolkit/pkg/run"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	buildOpts  run.BuildOptions
	jobOpts    customjob.Options
	timeout    string
	nfsMounts  []string
	platform   string
	outputPath string
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildOpts.Source, "component", "c", "", "Path or go-getter address (e.g. 'gcs::https://...', 'git::https://...') of the component YAML to wrap. Required.")
	buildCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Path to write the generated component to. Defaults to stdout.")
	buildCmd.Flags().StringVar(&buildOpts.OptionsFile, "options-file", "", "YAML file with builder options. Flags override its values.")
	buildCmd.Flags().BoolVar(&buildOpts.Parameterized, "parameterized", false, "Expose worker pools, timeout, restart, labels and IP ranges as component inputs defaulting to the options.")
	buildCmd.Flags().BoolVar(&buildOpts.PinImageDigest, "pin-image-digest", false, "Resolve the component image tag to a digest before wrapping it.")
	buildCmd.Flags().StringVarP(&platform, "platform", "f", "", "Platform whose manifest digest is pinned (e.g., 'linux/amd64'). Used with --pin-image-digest.")

	buildCmd.Flags().StringVar(&jobOpts.DisplayName, "display-name", "", "Display name of the job. Defaults to the component name.")
	buildCmd.Flags().IntVar(&jobOpts.ReplicaCount, "replica-count", 0, "Total number of replicas (default 1).")
	buildCmd.Flags().StringVarP(&jobOpts.MachineType, "machine-type", "m", "", "Machine type of every replica (default \"n1-standard-4\").")
	buildCmd.Flags().StringVarP(&jobOpts.AcceleratorType, "accelerator-type", "a", "", "Accelerator to attach (e.g., 'NVIDIA_TESLA_T4').")
	buildCmd.Flags().IntVar(&jobOpts.AcceleratorCount, "accelerator-count", 0, "Accelerators per replica (default 1). Used with --accelerator-type.")
	buildCmd.Flags().StringVar(&jobOpts.BootDiskType, "boot-disk-type", "", "Boot disk type, 'pd-ssd' or 'pd-standard' (default \"pd-ssd\").")
	buildCmd.Flags().IntVar(&jobOpts.BootDiskSizeGB, "boot-disk-size-gb", 0, "Boot disk size in GB (default 100).")
	buildCmd.Flags().StringVar(&timeout, "timeout", "", "Maximum job run time, in seconds ('3600') or as a duration ('3600s').")
	buildCmd.Flags().BoolVar(&jobOpts.RestartJobOnWorkerRestart, "restart-job-on-worker-restart", false, "Restart the whole job when a worker restarts.")
	buildCmd.Flags().StringVar(&jobOpts.ServiceAccount, "service-account", "", "Default of the service_account input.")
	buildCmd.Flags().StringVar(&jobOpts.Network, "network", "", "Default of the network input (e.g., 'projects/12345/global/networks/myVPC').")
	buildCmd.Flags().StringVar(&jobOpts.Tensorboard, "tensorboard", "", "Default of the tensorboard input.")
	buildCmd.Flags().StringVar(&jobOpts.BaseOutputDirectory, "base-output-directory", "", "Default of the base_output_directory input (a gs:// prefix).")
	buildCmd.Flags().StringToStringVar(&jobOpts.Labels, "label", nil, "Job label as key=value. Repeatable.")
	buildCmd.Flags().StringArrayVar(&jobOpts.ReservedIPRanges, "reserved-ip-range", nil, "Reserved IP range name for the job. Repeatable.")
	buildCmd.Flags().StringArrayVar(&nfsMounts, "nfs-mount", nil, "NFS mount as 'server:path[:mount_point]'. Repeatable.")
	buildCmd.Flags().StringVar(&jobOpts.LauncherImage, "launcher-image", "", "Image that runs the launcher (default \""+customjob.DefaultLauncherImage+"\").")

	_ = buildCmd.MarkFlagRequired("component")
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Wraps a container component so that it runs as a Vertex AI custom job.",
	Long: `The 'build' command reads a container-based component and writes a new
component that submits the original container as a Vertex AI custom training
job. Machine, accelerator, disk, replica and scheduling settings come from
--options-file and the flags below; flags take precedence.

The service account, network, tensorboard and base output directory stay
inputs of the generated component; their flags only set the input defaults.`,
	RunE:         runBuildCmd,
	SilenceUsage: true,
}

func runBuildCmd(cmd *cobra.Command, args []string) error {
	logging.Debug("Executing build command...")

	jobOpts.Timeout = customjob.Duration(timeout)
	jobOpts.NFSMounts = nil
	for _, m := range nfsMounts {
		mount, err := parseNFSMount(m)
		if err != nil {
			return err
		}
		jobOpts.NFSMounts = append(jobOpts.NFSMounts, mount)
	}

	buildOpts.Output = outputPath
	buildOpts.RestartOverride = nil
	if cmd.Flags().Changed("restart-job-on-worker-restart") {
		restart := jobOpts.RestartJobOnWorkerRestart
		buildOpts.RestartOverride = &restart
	}
	buildOpts.Overrides = jobOpts
	buildOpts.Platform = imagebuilder.DockerPlatform(platform)
	buildOpts.Stdout = cmd.OutOrStdout()

	spec, err := run.ExecuteBuild(afero.NewOsFs(), buildOpts)
	if err != nil {
		return err
	}
	if outputPath != "" {
		color.New(color.FgGreen).Fprintf(os.Stderr, "Custom job component %q written to %s\n", spec.Name, outputPath)
	}
	return nil
}

// parseNFSMount parses "server:path[:mount_point]".
func parseNFSMount(s string) (customjob.NFSMount, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return customjob.NFSMount{}, fmt.Errorf("invalid --nfs-mount %q, expected \"server:path[:mount_point]\"", s)
	}
	m := customjob.NFSMount{Server: parts[0], Path: parts[1]}
	if len(parts) == 3 {
		m.MountPoint = parts[2]
	}
	return m, nil
}
