/*
Package warden keeps a trading workstation or gateway running unattended.

It launches the host application, answers the dialogs the host raises (login,
warnings, confirmations), applies API settings through the host's
configuration dialog, and shuts the host down or restarts it on a schedule or
on request from a control channel.

# Concept

A Controller owns one host session. Window notifications from the host flow
through a single dispatch loop into an ordered list of handlers; the first
handler whose signature matches a window reacts to it. Every lifecycle change
(logged in, stop requested, host exited) is a transition of one session state
machine, so the scheduler, the control channel and the dialog handlers can
never race each other into a double shutdown.

	Starting -> LoggingIn -> Running -> ShuttingDown -> Stopped

# Usage

	host := process.NewHost(process.Config{Command: "/opt/ibgateway/ibgateway"})
	settings, _ := schedule.ParseSettings("Friday 22:00", "", "", "")

	ctrl, err := warden.New(host,
		warden.WithHandlers(dialogs.Default(dialogs.Settings{HostKind: domain.HostGateway})...),
		warden.WithSchedule(settings),
		warden.WithCommandServer("127.0.0.1:7462"),
	)
	if err != nil {
		log.Fatal(err)
	}
	code, err := ctrl.Run(ctx)
	os.Exit(int(code))

The exit code tells an external supervisor whether to stay down (0), restart
the host (10) or restart it cold (11). Configuration problems exit with
dedicated codes before the host is launched.
*/
package warden
