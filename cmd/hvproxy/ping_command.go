package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hvproxy/internal/ipc"
	"hvproxy/internal/protocol"
)

func newPingCommand(ctx *commandContext) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Probe daemon connectivity, launching the daemon if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withSession(func(session *ipc.Session) error {
				for i := 0; i < count; i++ {
					start := time.Now()
					resp, err := session.Execute(protocol.CmdNone, nil)
					if err != nil {
						return fmt.Errorf("ping daemon: %w", err)
					}
					if resp.Command != protocol.CmdNone {
						return fmt.Errorf("ping daemon: unexpected reply command %s", resp.Command)
					}
					fmt.Fprintf(stdout, "reply from @%s: serial=%d time=%s\n",
						ctx.socketName(), resp.Serial, time.Since(start).Round(time.Microsecond))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of ping round trips")
	return cmd
}
