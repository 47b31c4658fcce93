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

// Package cmd defines the command line interface.
package cmd

import (
	"os"

	"customjob-toolkit/pkg/logging"

	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "customjob-toolkit",
	Short: "Wraps pipeline components as Vertex AI custom jobs and launches them.",
	Long: `customjob-toolkit turns container-based pipeline components into components
that run the original container as a Vertex AI custom training job.

'build' generates the wrapper component; 'run' is the launcher entry point the
wrapper component executes at pipeline run time.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.SetLevel(logLevel)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error.")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
