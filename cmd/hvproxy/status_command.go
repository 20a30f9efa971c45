package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hvproxy/internal/daemonctl"
	"hvproxy/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var noLaunch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report daemon reachability and hypervisor version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			binary := "not found"
			if path, err := daemonctl.Locate(cfg.Daemon.Binary, cfg.Daemon.SearchPaths); err == nil {
				binary = path
			}

			reachable := false
			hypervisor := "-"
			connectDetail := ""
			probe := func(session *ipc.Session) error {
				reachable = true
				v, err := session.HypervisorVersion()
				if err != nil {
					return err
				}
				if v.IsZero() {
					hypervisor = "unknown"
				} else {
					hypervisor = v.String()
				}
				return nil
			}
			var probeErr error
			if noLaunch {
				probeErr = probeWithoutLaunch(ctx, probe)
			} else {
				probeErr = ctx.withSession(probe)
			}
			if probeErr != nil && !reachable {
				connectDetail = probeErr.Error()
			}

			rows := [][]string{
				{"Socket", "@" + ctx.socketName()},
				{"Daemon binary", binary},
				{"Reachable", yesNo(reachable)},
				{"Hypervisor version", hypervisor},
			}
			if connectDetail != "" {
				rows = append(rows, []string{"Last error", connectDetail})
			}

			stdout := cmd.OutOrStdout()
			if stdoutIsTerminal() {
				fmt.Fprintln(stdout, renderTable([]string{"Field", "Value"}, rows, nil))
			} else {
				fmt.Fprintln(stdout, renderPlain(rows))
			}

			if probeErr != nil && reachable {
				return probeErr
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noLaunch, "no-launch", false, "Probe only; do not launch the daemon if it is down")
	return cmd
}

// probeWithoutLaunch connects with the launcher disabled, so a down daemon
// stays down and simply reports as unreachable.
func probeWithoutLaunch(ctx *commandContext, fn func(*ipc.Session) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	session, err := ipc.Connect(ipc.ConnectOptions{
		Dial: ipc.DialOptions{
			SocketName:  ctx.socketName(),
			Attempts:    cfg.Connect.Attempts,
			BackoffUnit: cfg.BackoffUnit(),
		},
		Session: ipc.SessionOptions{
			MaxMismatchedReads: cfg.Connect.MaxMismatchedReads,
		},
	}, nil, ctx.logger())
	if err != nil {
		return err
	}
	defer session.Close()
	return fn(session)
}
