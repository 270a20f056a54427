// internal/models/revenue.go
package models

// RevenueAccount is the pull-payment escrow of one investor for one asset.
type RevenueAccount struct {
	AssetID   uint64    `json:"asset_id" gorm:"primaryKey;autoIncrement:false"`
	Investor  AccountID `json:"investor" gorm:"primaryKey;size:128"`
	Claimable Amount    `json:"claimable" gorm:"not null"`
	Claimed   Amount    `json:"claimed" gorm:"not null"`
	Timestamps
}

// RevenuePool aggregates revenue per asset. Credited + Dust == Deposited.
type RevenuePool struct {
	AssetID   uint64 `json:"asset_id" gorm:"primaryKey;autoIncrement:false"`
	Deposited Amount `json:"deposited" gorm:"not null"`
	Credited  Amount `json:"credited" gorm:"not null"`
	Dust      Amount `json:"dust" gorm:"not null"`
	Timestamps
}

// Listing is a seller's announcement that their stake is for sale.
type Listing struct {
	AssetID uint64    `json:"asset_id" gorm:"primaryKey;autoIncrement:false"`
	Seller  AccountID `json:"seller" gorm:"primaryKey;size:128"`
	Price   Amount    `json:"price" gorm:"not null"`
	Timestamps
}

// PendingRefund holds fee overpayments awaiting a claim.
type PendingRefund struct {
	Account AccountID `json:"account" gorm:"primaryKey;size:128"`
	Amount  Amount    `json:"amount" gorm:"not null"`
	Timestamps
}
