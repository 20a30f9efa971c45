package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hvproxy/internal/ipc"
)

// clientVersion is stamped at release time.
const clientVersion = "0.1.0"

func newVersionCommand(ctx *commandContext) *cobra.Command {
	var clientOnly bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show client and hypervisor versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "hvproxy client %s\n", clientVersion)
			if clientOnly {
				return nil
			}

			return ctx.withSession(func(session *ipc.Session) error {
				v, err := session.HypervisorVersion()
				if err != nil {
					return fmt.Errorf("query hypervisor version: %w", err)
				}
				if v.IsZero() {
					fmt.Fprintln(stdout, "hypervisor: no versioning information available")
					return nil
				}
				fmt.Fprintf(stdout, "hypervisor: %s\n", v)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clientOnly, "client", false, "Show only the client version, without contacting the daemon")
	return cmd
}
