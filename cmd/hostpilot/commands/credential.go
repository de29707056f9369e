package commands

import (
	"fmt"
	"os"

	"hostpilot/internal/credentials"

	"github.com/spf13/cobra"
)

var CredentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage stored credentials",
	Long:  `Store, delete and inspect credentials. Secrets are encrypted at rest with the configured master key (HOSTPILOT_MASTER_KEY) and are never printed back.`,
}

var credentialTypesHelp = `Credential types:

- control-plane-token — API token for the monitoring control plane
- private-key         — SSH private key (PEM), preferred for authentication
- sudo-password       — secret piped into sudo for privilege escalation
- login-password      — SSH login password, used when no private key resolves

A credential stored without --host applies globally; a host-specific credential of the same type always shadows the global one for that host.`

var StoreCredentialCmd = &cobra.Command{
	Use:   "store <type>",
	Short: "Store a credential (prompts for the secret)",
	Long:  "Store a credential for a host or globally. The secret is read from the terminal without echo, or from a file with --from-file (typical for private keys).\n\n" + credentialTypesHelp,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, err := credentialsService()

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		host, _ := cmd.Flags().GetString("host")
		if host == "" {
			host = credentials.ScopeGlobal
		}

		fromFile, _ := cmd.Flags().GetString("from-file")

		var secret []byte

		if fromFile != "" {
			secret, err = os.ReadFile(fromFile)

			if err != nil {
				cmd.PrintErrf("Error: failed to read %s: %v\n", fromFile, err)
				return
			}
		} else {
			value, err := readPasswordSecurely("Enter secret: ")

			if err != nil {
				cmd.PrintErrf("Error: failed to read secret: %v\n", err)
				return
			}

			secret = []byte(value)
		}

		id, err := service.Store(credentials.CredentialType(args[0]), host, secret)

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		scope := "global"
		if host != credentials.ScopeGlobal {
			scope = fmt.Sprintf("host %s", host)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Stored %s credential (%s), id %s\n", args[0], scope, id)
	},
}

var DeleteCredentialCmd = &cobra.Command{
	Use:   "delete <type>",
	Short: "Delete a credential",
	Long:  "Delete a credential for a host or globally. Deleting an absent credential reports not-found and is not an error.\n\n" + credentialTypesHelp,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, err := credentialsService()

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		host, _ := cmd.Flags().GetString("host")
		if host == "" {
			host = credentials.ScopeGlobal
		}

		deleted, err := service.Delete(credentials.CredentialType(args[0]), host)

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		if !deleted {
			fmt.Fprintf(cmd.OutOrStdout(), "Credential not found, nothing deleted\n")
			return
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Credential deleted\n")
	},
}

var CredentialStatusCmd = &cobra.Command{
	Use:   "status <host>",
	Short: "Show which credential types are configured for a host",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, err := credentialsService()

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		statuses, err := service.Status(args[0])

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Credential status for %s:\n", args[0])

		for _, status := range statuses {
			if status.Configured {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-20s configured (%s)\n", status.Type, status.Scope)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-20s not configured\n", status.Type)
			}
		}
	},
}

func init() {
	CredentialCmd.AddCommand(StoreCredentialCmd)
	CredentialCmd.AddCommand(DeleteCredentialCmd)
	CredentialCmd.AddCommand(CredentialStatusCmd)

	StoreCredentialCmd.Flags().String("host", "", "Host the credential is scoped to (global when omitted)")
	StoreCredentialCmd.Flags().String("from-file", "", "Read the secret from a file instead of prompting")

	DeleteCredentialCmd.Flags().String("host", "", "Host the credential is scoped to (global when omitted)")
}
