package models

import (
	"time"
)

// ImageRecord is attachment metadata. KeyRef1 carries the owning docNo;
// KeyRef2/KeyRef3 carry line context (uuid, variant). The underlying file is
// deleted best-effort after the owning document's delete transaction commits.
type ImageRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	KeyRef1   string    `gorm:"size:100;index" json:"keyRef1"`
	KeyRef2   string    `gorm:"size:100" json:"keyRef2"`
	KeyRef3   string    `gorm:"size:100" json:"keyRef3"`
	Remark    string    `gorm:"size:255" json:"remark"`
	PicURL    string    `gorm:"size:250" json:"picURL"`
	CreatedBy string    `gorm:"size:100" json:"createdBy"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (ImageRecord) TableName() string {
	return "images"
}
