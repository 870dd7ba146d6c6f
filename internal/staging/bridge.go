package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pmcgroup/istock-backend/internal/logging"
	"github.com/pmcgroup/istock-backend/internal/models"
	"github.com/pmcgroup/istock-backend/internal/nav"
)

// Bridge moves approved documents into the ERP staging table. Every line is
// first persisted as an outbox row, then pushed sequentially; a failed push
// leaves its row pending for the background drainer, it never aborts the rest.
type Bridge struct {
	db     *gorm.DB
	client *nav.Client
}

func NewBridge(db *gorm.DB, client *nav.Client) *Bridge {
	return &Bridge{db: db, client: client}
}

// PushResult summarizes one bridge invocation.
type PushResult struct {
	Requested int      `json:"requested"`
	Lines     int      `json:"lines"`
	Sent      int      `json:"sent"`
	Pending   int      `json:"pending"`
	Missing   []string `json:"missing"`
}

// reshapeLine maps one document line to the flat record the ERP staging
// service expects. Outbound and count moves report their source location in
// the destination slots, mirroring how NAV books those movement types.
func reshapeLine(doc *models.Document, line *models.DocumentProduct) map[string]any {
	locFrom, binFrom := doc.LocationCodeFrom, doc.BinCodeFrom
	locTo, binTo := doc.LocationCodeTo, doc.BinCodeTo
	if doc.MenuID == models.MenuOutbound || doc.MenuID == models.MenuCount {
		locFrom, binFrom, locTo, binTo = locTo, binTo, locFrom, binFrom
	}

	return map[string]any{
		"docNo":          doc.DocNo,
		"menuId":         doc.MenuID,
		"category":       models.MenuName(doc.MenuID),
		"branchCode":     doc.BranchCode,
		"stockOutDate":   doc.StockOutDate.Format("2006-01-02"),
		"uuid":           line.UUID,
		"itemNo":         line.ProductCode,
		"variantCode":    stringOrEmpty(line.Model),
		"qty":            line.Quantity.InexactFloat64(),
		"serialNo":       stringOrEmpty(line.SerialNo),
		"remark":         stringOrEmpty(line.Remark),
		"locationCode":   locFrom,
		"binCode":        binFrom,
		"locationCodeTo": locTo,
		"binCodeTo":      binTo,
		"createdBy":      doc.CreatedBy,
	}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// PushDocuments persists an outbox row per line of every named document, then
// drains those rows against the ERP. Unknown docNos are reported, not fatal.
func (b *Bridge) PushDocuments(ctx context.Context, docNos []string) (*PushResult, error) {
	result := &PushResult{Requested: len(docNos), Missing: []string{}}
	if len(docNos) == 0 {
		return nil, fmt.Errorf("docNo list is empty")
	}

	var queued []models.StagingOutbox
	for _, docNo := range docNos {
		var doc models.Document
		err := b.db.Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).First(&doc, "doc_no = ?", docNo).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result.Missing = append(result.Missing, docNo)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load document %s: %w", docNo, err)
		}

		for i := range doc.Products {
			record := reshapeLine(&doc, &doc.Products[i])
			payload, err := json.Marshal(record)
			if err != nil {
				return nil, fmt.Errorf("encode staging line %s: %w", doc.Products[i].UUID, err)
			}
			row := models.StagingOutbox{
				DocNo:    doc.DocNo,
				LineUUID: doc.Products[i].UUID,
				Payload:  payload,
				Status:   models.OutboxPending,
			}
			if err := b.db.Create(&row).Error; err != nil {
				return nil, fmt.Errorf("queue staging line %s: %w", doc.Products[i].UUID, err)
			}
			queued = append(queued, row)
			result.Lines++
		}
	}

	for i := range queued {
		if b.drainRow(ctx, &queued[i]) {
			result.Sent++
		} else {
			result.Pending++
		}
	}
	return result, nil
}

// drainRow attempts one push and records the outcome on the row.
func (b *Bridge) drainRow(ctx context.Context, row *models.StagingOutbox) bool {
	var record map[string]any
	if err := json.Unmarshal(row.Payload, &record); err != nil {
		logging.LogError("staging", "drainRow", "corrupt outbox payload",
			map[string]any{"id": row.ID, "docNo": row.DocNo}, err)
		b.db.Model(row).Updates(map[string]any{
			"status":     models.OutboxFailed,
			"last_error": "corrupt payload: " + err.Error(),
		})
		return false
	}

	if b.client.PushStagingRecord(ctx, record) {
		b.db.Model(row).Updates(map[string]any{
			"status":   models.OutboxSent,
			"attempts": gorm.Expr("attempts + 1"),
		})
		return true
	}

	b.db.Model(row).Updates(map[string]any{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": "staging push failed",
	})
	return false
}
