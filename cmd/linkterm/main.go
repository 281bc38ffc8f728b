/*
Copyright 2018 Craig Johnston <cjimti@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/txn2/linkterm/cmd/linkterm/console"
	"github.com/txn2/linkterm/cmd/linkterm/parse"
)

var globalUsage = `Operator console for a remote, relay and drone control link.

Shows the log stream of each node in its own tab and sends typed
commands to the drone, e.g. SetThrust(0.5) or SetTarget([0 0 1]).`

var Version = "0.0.0"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkterm",
		Short: "Operator console for a drone control link.",
		Long:  globalUsage,
		Args:  cobra.NoArgs,
		RunE:  console.Cmd.RunE,
	}
	cmd.Flags().AddFlagSet(console.Cmd.Flags())

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of linkterm",
		Long:  ``,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "linkterm version: %s\nhttps://github.com/txn2/linkterm\n", Version)
		},
	}

	console.Version = Version
	cmd.AddCommand(versionCmd, console.Cmd, parse.Cmd)

	return cmd
}

func main() {
	cmd := newRootCmd()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
