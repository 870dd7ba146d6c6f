package models

import (
	"time"

	"gorm.io/datatypes"
)

// TransactionHistory is an append-only snapshot of a finalized document:
// header fields plus the serialized line array at recording time. Rows are
// never updated.
type TransactionHistory struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	DocNo            string         `gorm:"size:50;index;not null" json:"docNo"`
	MenuID           int            `json:"menuId"`
	MenuName         string         `gorm:"size:200" json:"menuName"`
	StockOutDate     *time.Time     `json:"stockOutDate"`
	Remark           string         `gorm:"size:500" json:"remark"`
	LocationCodeFrom string         `gorm:"size:50" json:"locationCodeFrom"`
	BinCodeFrom      string         `gorm:"size:50" json:"binCodeFrom"`
	LocationCodeTo   string         `gorm:"size:50" json:"locationCodeTo"`
	BinCodeTo        string         `gorm:"size:50" json:"binCodeTo"`
	BranchCode       string         `gorm:"size:10;index" json:"branchCode"`
	Status           string         `gorm:"size:50;index" json:"status"`
	Product          datatypes.JSON `json:"product"` // line array at time of recording
	CreatedAt        time.Time      `gorm:"autoCreateTime;index" json:"createdAt"`
	CreatedBy        string         `gorm:"size:100;index" json:"createdBy"`
}

func (TransactionHistory) TableName() string {
	return "transaction_histories"
}
