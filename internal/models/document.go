package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Document statuses. Transitions: Open -> Pending Approval -> Approved|Rejected.
const (
	StatusOpen            = "Open"
	StatusPendingApproval = "Pending Approval"
	StatusApproved        = "Approved"
	StatusRejected        = "Rejected"
)

// Menu ids select the stock-move type and the docNo prefix.
const (
	MenuReceive  = 0 // MI
	MenuOutbound = 1 // MO
	MenuTransfer = 2 // MT
	MenuCount    = 3 // MC
)

// Document is a stock-move document header, keyed by its business docNo.
type Document struct {
	DocNo            string    `gorm:"primaryKey;size:50" json:"docNo"`
	MenuID           int       `gorm:"index" json:"menuId"`
	MenuName         string    `gorm:"size:200" json:"menuName"`
	BranchCode       string    `gorm:"size:10;index" json:"branchCode"`
	StockOutDate     time.Time `json:"stockOutDate"`
	Remark           string    `gorm:"size:500" json:"remark"`
	LocationCodeFrom string    `gorm:"size:50" json:"locationCodeFrom"`
	BinCodeFrom      string    `gorm:"size:50" json:"binCodeFrom"`
	// Destination fields are only meaningful for transfer documents (menuId 2).
	LocationCodeTo string `gorm:"size:50" json:"locationCodeTo"`
	BinCodeTo      string `gorm:"size:50" json:"binCodeTo"`
	Status         string `gorm:"size:50;index;default:'Open'" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	CreatedBy string    `gorm:"size:100;index" json:"createdBy"`

	Products []DocumentProduct `gorm:"foreignKey:DocNo;references:DocNo" json:"products,omitempty"`
}

func (Document) TableName() string {
	return "documents"
}

// DocumentProduct is one line of a document. The autoincrement ID preserves
// insertion order; (UUID, ProductCode) and (UUID, DocNo) are the composite
// keys used by the batch edit/delete operations.
type DocumentProduct struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UUID        string          `gorm:"size:64;index" json:"uuid"`
	DocNo       string          `gorm:"size:50;index;not null" json:"docNo"`
	ProductCode string          `gorm:"size:100;not null" json:"productCode"`
	Model       *string         `gorm:"size:100" json:"model"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"quantity"`
	SerialNo    *string         `gorm:"size:100" json:"serialNo"`
	Remark      *string         `gorm:"size:255" json:"remark"`
	BranchCode  *string         `gorm:"size:50" json:"branchCode"`
	PicURL      *string         `gorm:"size:250" json:"picURL"`
}

func (DocumentProduct) TableName() string {
	return "document_products"
}

// MenuPrefix maps a menu id to the docNo type prefix.
func MenuPrefix(menuID int) string {
	switch menuID {
	case MenuReceive:
		return "MI"
	case MenuOutbound:
		return "MO"
	case MenuTransfer:
		return "MT"
	default:
		return "MC"
	}
}

// MenuName maps a menu id to its display name.
func MenuName(menuID int) string {
	switch menuID {
	case MenuReceive:
		return "Scan-Receive"
	case MenuOutbound:
		return "Scan-Outbound"
	case MenuTransfer:
		return "Scan-Transfer"
	case MenuCount:
		return "Scan-Count"
	default:
		return "Unknown"
	}
}
