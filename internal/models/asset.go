// internal/models/asset.go
package models

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Asset is a registered media asset together with its funding state.
// FundingGoal is zero while no funding target exists (uncapped).
type Asset struct {
	ID            uint64      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Title         string      `json:"title" gorm:"size:512;not null;uniqueIndex"`
	Creator       AccountID   `json:"creator" gorm:"size:128;not null;index"`
	TotalRaised   Amount      `json:"total_raised" gorm:"not null"`
	FundingGoal   Amount      `json:"funding_goal" gorm:"not null"`
	PayoutAccount AccountID   `json:"payout_account,omitempty" gorm:"size:128"`
	Escrowed      Amount      `json:"escrowed" gorm:"not null"`
	GoalReached   bool        `json:"goal_reached" gorm:"default:false"`
	Investors     AccountList `json:"investors"`
	Timestamps
}

// AccountList is stored as a postgres text array. Other dialects keep the
// same array literal in a text column.
type AccountList []string

func (l AccountList) Value() (driver.Value, error) {
	return pq.StringArray(l).Value()
}

func (l *AccountList) Scan(src interface{}) error {
	return (*pq.StringArray)(l).Scan(src)
}

// GormDataType keeps gorm from parsing the slice as a relation.
func (AccountList) GormDataType() string {
	return "text"
}

func (AccountList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// Index returns the position of account in the list, or -1.
func (l AccountList) Index(account AccountID) int {
	for i, candidate := range l {
		if candidate == account {
			return i
		}
	}
	return -1
}

// SwapRemove removes position i by moving the last element into it.
func (l AccountList) SwapRemove(i int) AccountList {
	last := len(l) - 1
	l[i] = l[last]
	return l[:last]
}

func (a *Asset) HasFundingTarget() bool {
	return !a.FundingGoal.IsZero()
}

// Investment is one investor's stake in an asset.
type Investment struct {
	AssetID      uint64    `json:"asset_id" gorm:"primaryKey;autoIncrement:false"`
	Investor     AccountID `json:"investor" gorm:"primaryKey;size:128"`
	Amount       Amount    `json:"amount" gorm:"not null"`
	SharePercent uint64    `json:"share_percent" gorm:"default:0"`
	Timestamps
}

// Token is a singly-owned ownership handle for an asset or a license.
type Token struct {
	Kind  TokenKind `json:"kind" gorm:"primaryKey;size:16"`
	ID    uint64    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Owner AccountID `json:"owner" gorm:"size:128;not null;index"`
	Timestamps
}

// Sequence is a named, gap-free counter advanced inside transactions.
type Sequence struct {
	Name  string `gorm:"primaryKey;size:32"`
	Value uint64 `gorm:"not null"`
}
