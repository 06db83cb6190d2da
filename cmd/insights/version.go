package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()

			version, err := client.Version(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d.%d.%d (build %s)\n",
				version.ReleaseName, version.Major, version.Minor, version.Patch, version.Build)
			return nil
		},
	}
}

func newInitializedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "initialized",
		Short: "Report whether the deployment has been initialized",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()

			initialized, err := client.IsInitialized(cmd.Context())
			if err != nil {
				return err
			}
			if initialized {
				fmt.Fprintln(cmd.OutOrStdout(), "initialized")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "not initialized")
			}
			return nil
		},
	}
}
