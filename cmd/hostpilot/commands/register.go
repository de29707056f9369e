package commands

import (
	"hostpilot/cmd/hostpilot/config"
	"hostpilot/internal/audit"
	"hostpilot/internal/credentials"
	"hostpilot/internal/encryption"
	"hostpilot/internal/hostkeys"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	dbInstance            *gorm.DB
	credentialsRepository *credentials.Repository
	hostKeysRepository    *hostkeys.Repository
	auditRepository       *audit.Repository
	trustService          *hostkeys.Service
)

func RegisterCommands(rootCmd *cobra.Command, db *gorm.DB) {
	dbInstance = db
	credentialsRepository = credentials.NewRepository(db)
	hostKeysRepository = hostkeys.NewRepository(db)
	auditRepository = audit.NewRepository(db)
	trustService = hostkeys.NewService(hostKeysRepository, auditRepository)

	rootCmd.AddCommand(CredentialCmd)
	rootCmd.AddCommand(TrustCmd)
	rootCmd.AddCommand(ExecCmd)
	rootCmd.AddCommand(AuditCmd)
}

// credentialsService builds the credential store; it fails when no master key
// is configured, which callers surface as a configuration error.
func credentialsService() (*credentials.Service, error) {
	encryptionService, err := encryption.NewService(config.Config.MasterKey)

	if err != nil {
		return nil, err
	}

	return credentials.NewService(credentialsRepository, encryptionService), nil
}
