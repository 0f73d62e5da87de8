package models

import "time"

// AuditEvent is one record of a state-changing operation. The engine only
// writes these; it never reads audit state back.
type AuditEvent struct {
	ID        string
	ActorID   string
	FileID    string // empty when the action has no file subject
	Action    string
	Detail    string
	CreatedAt time.Time
}

// Audit action kinds.
const (
	AuditFileUpload    = "file.upload"
	AuditFileDelete    = "file.delete"
	AuditFileDownload  = "file.download"
	AuditVaultAdd      = "vault.add"
	AuditVaultAccess   = "vault.access"
	AuditVaultRemove   = "vault.remove"
	AuditVaultDestruct = "vault.destruct"
	AuditShareCreate   = "share.create"
	AuditShareRedeem   = "share.redeem"
	AuditShareUpdate   = "share.update"
	AuditShareRevoke   = "share.revoke"
)
