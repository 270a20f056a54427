// internal/models/admin.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// LedgerSettings is a singleton row (ID 1) holding owner-managed fee
// configuration.
type LedgerSettings struct {
	ID           uint      `json:"-" gorm:"primaryKey"`
	FeeEnabled   bool      `json:"fee_enabled" gorm:"default:false"`
	IssueFee     Amount    `json:"issue_fee" gorm:"not null"`
	RenewFee     Amount    `json:"renew_fee" gorm:"not null"`
	FeeRecipient AccountID `json:"fee_recipient" gorm:"size:128;not null"`
	UpdatedBy    AccountID `json:"updated_by" gorm:"size:128"`
	Timestamps
}

type CreatorRegistration struct {
	Account      AccountID `json:"account" gorm:"primaryKey;size:128"`
	RegisteredBy AccountID `json:"registered_by" gorm:"size:128;not null"`
	Timestamps
}

type AuditLog struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Account      string    `json:"account" gorm:"size:128;index"`
	Action       string    `json:"action" gorm:"size:100;not null;index"`
	ResourceType string    `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   string    `json:"resource_id" gorm:"size:64;index"`
	Status       int       `json:"status"`
	Payload      JSONB     `json:"payload" gorm:"type:jsonb"`
	IPAddress    string    `json:"ip_address" gorm:"size:45"`
	UserAgent    string    `json:"user_agent" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
}

// LedgerEvent is one committed, ordered ledger event. Seq is gap-free.
type LedgerEvent struct {
	Seq       uint64    `json:"seq" gorm:"primaryKey;autoIncrement:false"`
	ID        uuid.UUID `json:"id" gorm:"type:uuid;uniqueIndex"`
	Type      EventType `json:"type" gorm:"type:varchar(40);not null;index"`
	AssetID   uint64    `json:"asset_id,omitempty" gorm:"index"`
	LicenseID uint64    `json:"license_id,omitempty" gorm:"index"`
	Account   AccountID `json:"account,omitempty" gorm:"size:128"`
	Amount    Amount    `json:"amount"`
	Payload   JSONB     `json:"payload,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"created_at"`
}

// Balance and Allowance back the in-database payment rail.
type Balance struct {
	Account AccountID `json:"account" gorm:"primaryKey;size:128"`
	Amount  Amount    `json:"amount" gorm:"not null"`
	Timestamps
}

type Allowance struct {
	Owner   AccountID `json:"owner" gorm:"primaryKey;size:128"`
	Spender AccountID `json:"spender" gorm:"primaryKey;size:128"`
	Amount  Amount    `json:"amount" gorm:"not null"`
	Timestamps
}
