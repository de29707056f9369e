package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hostpilot/cmd/hostpilot/config"
	"hostpilot/internal/executor"
	"hostpilot/internal/sshpool"

	"github.com/spf13/cobra"
)

var (
	execArgPairs       []string
	execSudo           bool
	execConnectTimeout time.Duration
	execTimeout        time.Duration
	execRetries        int
	execActor          string
)

var ExecCmd = &cobra.Command{
	Use:   "exec [username@]hostname[:port] <command template>",
	Short: "Execute a command on a remote host",
	Long: `Execute a command on a remote host over a pooled SSH connection.

The command is a handlebars template; --arg key=value pairs are substituted into {{key}} placeholders before dispatch. Authentication uses the stored private-key credential first, the login-password credential second. Host identity follows trust-on-first-use.

With --sudo, the stored sudo-password credential for the host (host-specific, then global) is piped into sudo over stdin; without a stored sudo credential the command is sent unmodified.

Examples:

hostpilot exec pi@nas.local:22 "uptime"
hostpilot exec admin@minipc "systemctl restart {{service}}" --arg service=node-exporter --sudo`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		username, hostname, port, err := parseSSHURL(args[0])

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		if username == "" {
			username = config.Config.SSHUser
		}

		templateArgs, err := parseArgPairs(execArgPairs)

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		credentialsServiceInstance, err := credentialsService()

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		dialer := sshpool.NewSSHDialer(credentialsServiceInstance, trustService, username, port)

		pool := sshpool.NewPool(dialer, sshpool.Options{
			SizePerHost:    config.Config.PoolSizePerHost,
			IdleProbeAfter: config.Config.IdleProbeAfter,
			IdleExpiry:     config.Config.IdleExpiry,
		})

		executorService := executor.NewService(pool, credentialsServiceInstance, auditRepository, executor.Options{
			ConnectTimeout:  config.Config.ConnectTimeout,
			ExecuteTimeout:  config.Config.ExecuteTimeout,
			CheckoutTimeout: config.Config.CheckoutTimeout,
			MaxRetries:      config.Config.MaxRetries,
			BackoffBase:     config.Config.BackoffBase,
			BackoffCap:      config.Config.BackoffCap,
		})

		result := executorService.Execute(context.Background(), &executor.Request{
			Host:            hostname,
			CommandTemplate: strings.Join(args[1:], " "),
			Args:            templateArgs,
			Escalate:        execSudo,
			ConnectTimeout:  execConnectTimeout,
			ExecuteTimeout:  execTimeout,
			MaxRetries:      execRetries,
			Actor:           resolveActor(execActor),
		})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Config.ShutdownGrace)
		defer cancel()

		if err := pool.Shutdown(shutdownCtx); err != nil {
			cmd.PrintErrf("Warning: pool shutdown did not drain cleanly: %v\n", err)
		}

		if result.Stdout != "" {
			fmt.Fprintln(cmd.OutOrStdout(), result.Stdout)
		}

		if result.Stderr != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), result.Stderr)
		}

		if result.Succeeded {
			fmt.Fprintf(cmd.OutOrStdout(), "OK (%s, exit 0, %s)\n", result.State, result.Duration.Round(time.Millisecond))
			return
		}

		cmd.PrintErrf("FAILED (%s, %s): %s\n", result.State, result.ErrorKind, result.Message)
	},
}

func init() {
	ExecCmd.Flags().StringArrayVar(&execArgPairs, "arg", nil, "Template argument as key=value (repeatable)")
	ExecCmd.Flags().BoolVar(&execSudo, "sudo", false, "Run the command with privilege escalation")
	ExecCmd.Flags().DurationVar(&execConnectTimeout, "connect-timeout", 0, "Connect timeout (default from config)")
	ExecCmd.Flags().DurationVar(&execTimeout, "timeout", 0, "Execute timeout (default from config)")
	ExecCmd.Flags().IntVar(&execRetries, "retries", 0, "Max retries for transient faults (default from config)")
	ExecCmd.Flags().StringVar(&execActor, "actor", "", "Actor recorded in the audit log (defaults to HOSTPILOT_ACTOR or the OS user)")
}
