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
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"customjob-toolkit/pkg/customjob"
	"customjob-toolkit/pkg/launcher"
	"customjob-toolkit/pkg/logging"
	"customjob-toolkit/pkg/orchestrator/vertex"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run --type TYPE --project PROJECT --location LOCATION --payload PAYLOAD --gcp_resources PATH [--executor_input JSON]",
	Short: "Launches a job from a generated component and waits for it to finish.",
	Long: `The 'run' command is the launcher entry point executed by generated
components. It submits the job payload for the given --type, records the
created job in the --gcp_resources file and polls the job until it reaches a
terminal state. A job already recorded in --gcp_resources is resumed instead
of submitted again.`,
	DisableFlagParsing: true,
	Run:                runRunCmd,
	SilenceUsage:       true,
}

func newRegistry() *launcher.Registry {
	r := launcher.NewRegistry()
	r.Register(customjob.JobType, vertex.NewVertexOrchestrator())
	return r
}

// splitRootFlags takes --log-level and --help out of the launcher arguments,
// which cobra does not parse for this command.
func splitRootFlags(args []string) (level string, help bool, rest []string, err error) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help":
			help = true
		case arg == "--log-level":
			if i+1 >= len(args) {
				return "", false, nil, fmt.Errorf("flag needs an argument: --log-level")
			}
			level = args[i+1]
			i++
		case strings.HasPrefix(arg, "--log-level="):
			level = strings.TrimPrefix(arg, "--log-level=")
		default:
			rest = append(rest, arg)
		}
	}
	return level, help, rest, nil
}

func runRunCmd(cmd *cobra.Command, args []string) {
	level, help, args, err := splitRootFlags(args)
	if err != nil {
		logging.Fatal("%v", err)
	}
	if help {
		_ = cmd.Help()
		return
	}
	if level != "" {
		if err := logging.SetLevel(level); err != nil {
			logging.Fatal("invalid --log-level: %v", err)
		}
	}

	req, err := launcher.ParseArgs(args)
	if err != nil {
		logging.Fatal("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRegistry().Launch(ctx, req); err != nil {
		logging.Fatal("launcher failed: %v", err)
	}
}
