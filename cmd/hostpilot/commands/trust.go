package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var TrustCmd = &cobra.Command{
	Use:   "trust",
	Short: "Manage the host trust registry",
	Long:  `Inspect and manage pinned host keys. The first fingerprint a host presents is accepted and pinned (trust-on-first-use); any later mismatch refuses the connection until the host is explicitly forgotten here.`,
}

var TrustListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pinned host keys",
	Run: func(cmd *cobra.Command, args []string) {
		hostKeys, err := trustService.List()

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		if len(hostKeys) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No hosts trusted yet\n")
			return
		}

		for _, hostKey := range hostKeys {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  accepted %s\n", hostKey.Host, hostKey.Fingerprint, hostKey.AcceptedAt.Format("2006-01-02 15:04:05"))
		}
	},
}

var TrustForgetCmd = &cobra.Command{
	Use:   "forget <host>",
	Short: "Forget a pinned host key",
	Long:  `Drop the pinned fingerprint for a host so the next contact re-establishes trust. This is the only way to accept a host again after a key mismatch (for example after a reinstall) and is recorded in the audit log.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		actorFlag, _ := cmd.Flags().GetString("actor")

		forgotten, err := trustService.Forget(args[0], resolveActor(actorFlag))

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		if !forgotten {
			fmt.Fprintf(cmd.OutOrStdout(), "Host %s was not trusted, nothing forgotten\n", args[0])
			return
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Host %s forgotten; the next contact will re-establish trust\n", args[0])
	},
}

func init() {
	TrustCmd.AddCommand(TrustListCmd)
	TrustCmd.AddCommand(TrustForgetCmd)

	TrustForgetCmd.Flags().String("actor", "", "Actor recorded in the audit log (defaults to HOSTPILOT_ACTOR or the OS user)")
}
