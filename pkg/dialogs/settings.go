// Package dialogs contains the built-in recognition signatures and reactions
// for the host's dialogs.
//
// The list returned by Default is data: its order is the dispatch order, and
// some signatures only work because a more specific one precedes them (second
// factor authentication must come before the security code card dialog, since
// both offer "Enter Read Only").
package dialogs

import (
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/probe"
	"github.com/aretw0/warden/pkg/registry"
)

// ExistingSession policies.
const (
	SessionPrimary         = "primary"
	SessionPrimaryOverride = "primaryoverride"
	SessionSecondary       = "secondary"
	SessionManual          = "manual"
)

// Incoming connection policies.
const (
	IncomingAccept = "accept"
	IncomingReject = "reject"
	IncomingManual = "manual"
)

// Credentials are typed into the login window.
type Credentials struct {
	User     string
	Password string
}

// Complete reports whether both user and password are set.
func (c Credentials) Complete() bool {
	return c.User != "" && c.Password != ""
}

// Settings tune how the built-in handlers answer.
type Settings struct {
	HostKind    domain.HostKind
	Credentials Credentials

	// TradingMode is "live", "paper" or empty to leave the login window alone.
	TradingMode string

	ExistingSession    string
	IncomingConnection string

	AllowBlindTrading        bool
	AcceptNonBrokerageNotice bool
	DismissPasswordExpiry    bool
	ReadOnlyLogin            bool
	ConfirmOrderIDReset      bool
	SecondFactorDevice       string
}

// MainWindow recognizes the host's main window once login succeeded.
func MainWindow(kind domain.HostKind) registry.Matcher {
	if kind == domain.HostGateway {
		return registry.Matcher{
			TitlePrefix: "IBKR Gateway",
			When: func(w domain.WindowSnapshot) bool {
				_, login := probe.Find(w.Controls, probe.Query{Role: domain.RolePassword})
				return !login
			},
		}
	}
	return registry.Matcher{
		TitleContains: "Interactive Brokers",
		Control:       probe.Query{Name: "Edit", Role: domain.RoleMenuItem},
	}
}
