package commands

import (
	"fmt"
	"time"

	"hostpilot/internal/audit"

	"github.com/spf13/cobra"
)

var (
	auditHost  string
	auditSince time.Duration
	auditUntil time.Duration
)

var AuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the execution audit log",
	Long:  `Query the append-only audit log of execution attempts and trust events, optionally filtered by host and time range. Records are immutable; there is no way to change or remove them from here.`,
	Run: func(cmd *cobra.Command, args []string) {
		now := time.Now()
		from := now.Add(-auditSince)
		to := now.Add(-auditUntil)

		var records []*audit.AuditRecord
		var err error

		if auditHost != "" {
			records, err = auditRepository.QueryByHost(auditHost, from, to)
		} else {
			records, err = auditRepository.Query(from, to)
		}

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		if len(records) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No audit records in range\n")
			return
		}

		for _, record := range records {
			line := fmt.Sprintf("%s  %-18s %-17s actor=%s", record.StartedAt.Format("2006-01-02 15:04:05"), record.Host, record.Outcome, record.Actor)

			if record.Command != "" {
				line += fmt.Sprintf("  %q", record.Command)
			}

			if record.ErrorKind != "" {
				line += fmt.Sprintf("  (%s)", record.ErrorKind)
			}

			fmt.Fprintln(cmd.OutOrStdout(), line)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d record(s)\n", len(records))
	},
}

func init() {
	AuditCmd.Flags().StringVar(&auditHost, "host", "", "Only records for this host")
	AuditCmd.Flags().DurationVar(&auditSince, "since", 24*time.Hour, "Start of the time range, relative to now")
	AuditCmd.Flags().DurationVar(&auditUntil, "until", 0, "End of the time range, relative to now")
}
