// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AccountID identifies a participant on the payment rail. It is opaque to the
// ledger.
type AccountID = string

// Timestamps is embedded by every ledger table.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONB", value)
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type LicenseType string

const (
	LicenseTypeNonExclusive LicenseType = "non_exclusive"
	LicenseTypeExclusive    LicenseType = "exclusive"
	LicenseTypeStreaming    LicenseType = "streaming"
)

func (t LicenseType) Valid() bool {
	switch t {
	case LicenseTypeNonExclusive, LicenseTypeExclusive, LicenseTypeStreaming:
		return true
	}
	return false
}

type Territory string

const (
	TerritoryGlobal       Territory = "global"
	TerritoryNorthAmerica Territory = "north_america"
	TerritorySouthAmerica Territory = "south_america"
	TerritoryEurope       Territory = "europe"
	TerritoryAsia         Territory = "asia"
	TerritoryAfrica       Territory = "africa"
	TerritoryOceania      Territory = "oceania"
)

func (t Territory) Valid() bool {
	switch t {
	case TerritoryGlobal, TerritoryNorthAmerica, TerritorySouthAmerica,
		TerritoryEurope, TerritoryAsia, TerritoryAfrica, TerritoryOceania:
		return true
	}
	return false
}

type TokenKind string

const (
	TokenKindAsset   TokenKind = "asset"
	TokenKindLicense TokenKind = "license"
)

type EventType string

const (
	EventAssetRegistered      EventType = "AssetRegistered"
	EventAssetTransferred     EventType = "AssetTransferred"
	EventFundingTargetCreated EventType = "FundingTargetCreated"
	EventInvestmentMade       EventType = "InvestmentMade"
	EventInvestmentWithdrawn  EventType = "InvestmentWithdrawn"
	EventFundingGoalReached   EventType = "FundingGoalReached"
	EventFundsReleased        EventType = "FundsReleased"
	EventRevenueDistributed   EventType = "RevenueDistributed"
	EventRevenueCredited      EventType = "RevenueCredited"
	EventRevenuePaid          EventType = "RevenuePaid"
	EventRevenueClaimed       EventType = "RevenueClaimed"
	EventLicenseIssued        EventType = "LicenseIssued"
	EventLicenseRenewed       EventType = "LicenseRenewed"
	EventLicenseDeactivated   EventType = "LicenseDeactivated"
	EventLicenseReactivated   EventType = "LicenseReactivated"
	EventLicenseTransferred   EventType = "LicenseTransferred"
	EventFeePaid              EventType = "FeePaid"
	EventRefundIssued         EventType = "RefundIssued"
	EventRefundPending        EventType = "RefundPending"
	EventRefundClaimed        EventType = "RefundClaimed"
	EventSharesListed         EventType = "SharesListed"
	EventSharesPurchased      EventType = "SharesPurchased"
	EventFeeSettingsUpdated   EventType = "FeeSettingsUpdated"
	EventCreatorRegistered    EventType = "CreatorRegistered"
)
