package main

import (
	"fmt"

	"hostpilot/cmd/hostpilot/commands"
	"hostpilot/cmd/hostpilot/config"
	"hostpilot/internal/database"

	"github.com/spf13/cobra"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "hostpilot",
	Short: "Credential store and remote-execution core for homelab monitoring",
	Long: `hostpilot is the credential and remote-execution core of a homelab monitoring platform. It stores secrets encrypted at rest, pins remote host identities on first use, maintains a bounded pool of authenticated SSH connections per host, and executes commands with timeouts, retries and a full audit trail.

Quick start:

1. Configure a master key (used to encrypt credentials at rest):

export HOSTPILOT_MASTER_KEY=$(head -c 32 /dev/urandom | base64)

2. Store credentials:

hostpilot credential store private-key --from-file ~/.ssh/id_ed25519
hostpilot credential store sudo-password --host nas.local

3. Execute a command:

hostpilot exec admin@nas.local "systemctl restart {{service}}" --arg service=smartd --sudo

The first contact with a host pins its key fingerprint (trust-on-first-use); a later mismatch refuses the connection until you run 'hostpilot trust forget <host>'. Every execution attempt, successful or not, lands in the audit log ('hostpilot audit').`,
	Version: fmt.Sprintf("%s; db path: %s; profile: %s", Version, config.DatabasePath, config.HostpilotProfile),
}

func main() {
	db, err := database.InitDB(config.Config.DatabasePath)

	if err != nil {
		rootCmd.PrintErrf("Failed to initialize database at %s: %v\n", config.Config.DatabasePath, err)
		return
	}

	commands.RegisterCommands(rootCmd, db)

	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrf("%v\n", err)
	}

	defer func() {
		if err := database.CloseDB(db); err != nil {
			rootCmd.PrintErrf("Failed to close database: %v\n", err)
		}
	}()
}
