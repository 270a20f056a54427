// internal/models/license.go
package models

// License is a time-bounded, territory-scoped grant of rights on an asset.
// Validity is derived on read and never stored.
type License struct {
	ID          uint64      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	AssetID     uint64      `json:"asset_id" gorm:"not null;index"`
	Creator     AccountID   `json:"creator" gorm:"size:128;not null"`
	Licensee    AccountID   `json:"licensee" gorm:"size:128;not null;index"`
	ValidUntil  int64       `json:"valid_until" gorm:"not null"`
	LicenseType LicenseType `json:"license_type" gorm:"type:varchar(20);not null"`
	Territory   Territory   `json:"territory" gorm:"type:varchar(20);not null"`
	IsActive    bool        `json:"is_active" gorm:"default:true"`
	Timestamps
}

// TerritoryLock reserves (asset, territory) for one exclusive license.
type TerritoryLock struct {
	AssetID   uint64    `gorm:"primaryKey;autoIncrement:false"`
	Territory Territory `gorm:"primaryKey;type:varchar(20)"`
	LicenseID uint64    `gorm:"not null"`
}

// ActiveLicenseIndex maps (asset, type, territory) to the active
// non-exclusive or streaming license holding it.
type ActiveLicenseIndex struct {
	AssetID     uint64      `gorm:"primaryKey;autoIncrement:false"`
	LicenseType LicenseType `gorm:"primaryKey;type:varchar(20)"`
	Territory   Territory   `gorm:"primaryKey;type:varchar(20)"`
	LicenseID   uint64      `gorm:"not null"`
}
