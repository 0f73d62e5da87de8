package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/flagx"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/timex"
)

// JsonConfig is the DTO for the JSON overlay. Duration fields accept either
// strings like "12h" or integer nanoseconds; quota maps are JSON-only since
// they do not fit short flags.
type JsonConfig struct {
	DatabaseDSN           *string          `json:"database_dsn"`
	WorkDir               *string          `json:"work_dir"`
	ScratchDir            *string          `json:"scratch_dir"`
	MasterKey             *string          `json:"master_key"`
	SessionSecret         *string          `json:"session_secret"`
	SessionTTL            *timex.Duration  `json:"session_ttl"`
	MaxFileSize           *int64           `json:"max_file_size"`
	FileExpirationEnabled *bool            `json:"file_expiration_enabled"`
	DefaultStorageQuota   *int64           `json:"default_storage_quota"`
	DefaultTeamQuota      *int64           `json:"default_team_quota"`
	DefaultVaultQuota     *int64           `json:"default_vault_quota"`
	RoleStorageQuotas     map[string]int64 `json:"role_storage_quotas"`
	VaultPermissions      map[string]int64 `json:"vault_permissions"`
	DepartmentBonuses     map[string]int64 `json:"department_bonuses"`
	S3Enabled             *bool            `json:"s3_enabled"`
	S3RootUser            *string          `json:"s3_root_user"`
	S3RootPassword        *string          `json:"s3_root_password"`
	S3Bucket              *string          `json:"s3_bucket"`
	S3Region              *string          `json:"s3_region"`
	S3BaseEndpoint        *string          `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into config. Absent file → no changes; unreadable or
// invalid file → panic, as a misconfigured vault must not start.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setInt64 := func(dst *int64, src *int64) {
		if src != nil {
			*dst = *src
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.WorkDir, c.WorkDir)
	setString(&config.ScratchDir, c.ScratchDir)
	setString(&config.MasterKey, c.MasterKey)
	setString(&config.SessionSecret, c.SessionSecret)
	if c.SessionTTL != nil {
		config.SessionTTL = time.Duration(c.SessionTTL.Duration)
	}
	setInt64(&config.MaxFileSize, c.MaxFileSize)
	setBool(&config.FileExpirationEnabled, c.FileExpirationEnabled)
	setInt64(&config.DefaultStorageQuota, c.DefaultStorageQuota)
	setInt64(&config.DefaultTeamQuota, c.DefaultTeamQuota)
	setInt64(&config.DefaultVaultQuota, c.DefaultVaultQuota)
	if c.RoleStorageQuotas != nil {
		config.RoleStorageQuotas = c.RoleStorageQuotas
	}
	if c.VaultPermissions != nil {
		config.VaultPermissions = c.VaultPermissions
	}
	if c.DepartmentBonuses != nil {
		config.DepartmentBonuses = c.DepartmentBonuses
	}
	setBool(&config.S3Enabled, c.S3Enabled)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}
