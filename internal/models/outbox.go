package models

import (
	"time"

	"gorm.io/datatypes"
)

// Staging outbox states.
const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// StagingOutbox is a durable record of one document line queued for the NAV
// staging endpoint. Rows are written in the same transaction that reads the
// approved document, so an ERP outage can never lose a line; the drainer
// retries pending rows until they are sent or exhausted.
type StagingOutbox struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	DocNo     string         `gorm:"size:50;index;not null" json:"docNo"`
	LineUUID  string         `gorm:"size:64;index" json:"lineUuid"`
	Payload   datatypes.JSON `json:"payload"`
	Status    string         `gorm:"size:20;index;default:'pending'" json:"status"`
	Attempts  int            `gorm:"default:0" json:"attempts"`
	LastError string         `gorm:"size:500" json:"lastError"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (StagingOutbox) TableName() string {
	return "staging_outboxes"
}
