package documents

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pmcgroup/istock-backend/internal/logging"
	"github.com/pmcgroup/istock-backend/internal/models"
	"github.com/pmcgroup/istock-backend/internal/utils"
)

// Service errors. Handlers map these to HTTP statuses.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("document not found")
	ErrDuplicate  = errors.New("document number already exists")
)

// Service owns document headers and lines: creation, queries, the approval
// state machine and batch line edits. Every batch operation runs in a single
// transaction with per-item tolerance and itemized reporting.
type Service struct {
	db        *gorm.DB
	uploadDir string
}

func NewService(db *gorm.DB, uploadDir string) *Service {
	return &Service{db: db, uploadDir: uploadDir}
}

// LineInput is one product line on a create request. Quantity is kept loose
// because mobile clients send it as number or string (sometimes with commas).
type LineInput struct {
	UUID        string `json:"uuid"`
	ProductCode string `json:"productCode"`
	Model       string `json:"model"`
	Quantity    any    `json:"quantity"`
	SerialNo    string `json:"serialNo"`
	Remark      string `json:"remark"`
	BranchCode  string `json:"branchCode"`
	PicURL      string `json:"picURL"`
}

// CreateRequest carries a new document header plus its lines.
type CreateRequest struct {
	DocNo            string      `json:"docNo"`
	MenuID           *int        `json:"menuId"`
	BranchCode       string      `json:"branchCode"`
	StockOutDate     string      `json:"stockOutDate"`
	Remark           string      `json:"remark"`
	LocationCodeFrom string      `json:"locationCodeFrom"`
	BinCodeFrom      string      `json:"binCodeFrom"`
	LocationCodeTo   string      `json:"locationCodeTo"`
	BinCodeTo        string      `json:"binCodeTo"`
	Products         []LineInput `json:"products"`
}

// LineError reports one rejected line by its position in the request.
type LineError struct {
	Index       int    `json:"index"`
	ProductCode string `json:"productCode,omitempty"`
	UUID        string `json:"uuid,omitempty"`
	Reason      string `json:"reason"`
}

// CreateResult itemizes the outcome of a batch create.
type CreateResult struct {
	DocNo      string      `json:"docNo"`
	Requested  int         `json:"requested"`
	Valid      int         `json:"valid"`
	Inserted   int         `json:"inserted"`
	PreErrors  []LineError `json:"preErrors"`
	ItemErrors []LineError `json:"itemErrors"`
}

// normalizeUUID keeps a caller-supplied v1-v5 uuid, otherwise assigns a new v4.
func normalizeUUID(s string) string {
	if u, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
		if v := u.Version(); v >= 1 && v <= 5 {
			return u.String()
		}
	}
	return uuid.NewString()
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Create validates and persists a document with its lines. Lines missing a
// product code are rejected up front (preErrors); lines failing on insert are
// collected (itemErrors). The header commits as long as at least one line
// made it in; otherwise everything rolls back.
func (s *Service) Create(actor string, req *CreateRequest) (*CreateResult, error) {
	if req.MenuID == nil || *req.MenuID < models.MenuReceive || *req.MenuID > models.MenuCount {
		return nil, fmt.Errorf("%w: menuId must be between 0 and 3", ErrValidation)
	}
	if strings.TrimSpace(req.BranchCode) == "" {
		return nil, fmt.Errorf("%w: branchCode is required", ErrValidation)
	}
	if len(req.Products) == 0 {
		return nil, fmt.Errorf("%w: products must not be empty", ErrValidation)
	}

	menuID := *req.MenuID
	docNo := strings.TrimSpace(req.DocNo)
	if docNo == "" {
		return nil, fmt.Errorf("%w: docNo is required", ErrValidation)
	}

	stockOutDate := utils.TodayUTC()
	if strings.TrimSpace(req.StockOutDate) != "" {
		d, err := utils.NormalizeInputDate(strings.TrimSpace(req.StockOutDate))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		stockOutDate = d
	}

	result := &CreateResult{
		DocNo:      docNo,
		Requested:  len(req.Products),
		PreErrors:  []LineError{},
		ItemErrors: []LineError{},
	}

	lines := make([]models.DocumentProduct, 0, len(req.Products))
	lineIndexes := make([]int, 0, len(req.Products))
	for i, p := range req.Products {
		code := strings.TrimSpace(p.ProductCode)
		if code == "" {
			result.PreErrors = append(result.PreErrors, LineError{
				Index: i, UUID: p.UUID, Reason: "productCode is required",
			})
			continue
		}
		lines = append(lines, models.DocumentProduct{
			UUID:        normalizeUUID(p.UUID),
			DocNo:       docNo,
			ProductCode: code,
			Model:       optString(p.Model),
			Quantity:    utils.ToDecimal(p.Quantity),
			SerialNo:    optString(p.SerialNo),
			Remark:      optString(p.Remark),
			BranchCode:  optString(p.BranchCode),
			PicURL:      optString(p.PicURL),
		})
		lineIndexes = append(lineIndexes, i)
	}
	result.Valid = len(lines)
	if result.Valid == 0 {
		return result, fmt.Errorf("%w: no valid product lines", ErrValidation)
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}

	var existing int64
	if err := tx.Model(&models.Document{}).Where("doc_no = ?", docNo).Count(&existing).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("check document %s: %w", docNo, err)
	}
	if existing > 0 {
		tx.Rollback()
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, docNo)
	}

	doc := models.Document{
		DocNo:            docNo,
		MenuID:           menuID,
		MenuName:         models.MenuName(menuID),
		BranchCode:       strings.TrimSpace(req.BranchCode),
		StockOutDate:     stockOutDate,
		Remark:           strings.TrimSpace(req.Remark),
		LocationCodeFrom: strings.TrimSpace(req.LocationCodeFrom),
		BinCodeFrom:      strings.TrimSpace(req.BinCodeFrom),
		LocationCodeTo:   strings.TrimSpace(req.LocationCodeTo),
		BinCodeTo:        strings.TrimSpace(req.BinCodeTo),
		Status:           models.StatusOpen,
		CreatedBy:        actor,
	}
	if err := tx.Create(&doc).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("create document %s: %w", docNo, err)
	}

	for i := range lines {
		if err := tx.Create(&lines[i]).Error; err != nil {
			logging.LogError("documents", "Create", "insert line failed",
				map[string]any{"docNo": docNo, "uuid": lines[i].UUID}, err)
			result.ItemErrors = append(result.ItemErrors, LineError{
				Index:       lineIndexes[i],
				ProductCode: lines[i].ProductCode,
				UUID:        lines[i].UUID,
				Reason:      err.Error(),
			})
			continue
		}
		result.Inserted++
	}

	if result.Inserted == 0 {
		tx.Rollback()
		return result, fmt.Errorf("%w: all product lines failed to insert", ErrValidation)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("commit document %s: %w", docNo, err)
	}
	return result, nil
}

// ListFilter narrows and pages the document list.
type ListFilter struct {
	Status        string
	MenuID        *int
	BranchCodes   []string
	CreatedBy     string
	CreatedFrom   string
	CreatedTo     string
	StockDateFrom string
	StockDateTo   string
	Page          int
	PageSize      int
	SortBy        string
	SortDir       string
}

// ListResult pages document headers with the unpaged total.
type ListResult struct {
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
	Items    []models.Document `json:"items"`
}

// sortColumns is the allow-list of sortable columns. Anything else falls back
// to createdAt.
var sortColumns = map[string]string{
	"docNo":            "doc_no",
	"menuId":           "menu_id",
	"menuName":         "menu_name",
	"stockOutDate":     "stock_out_date",
	"createdAt":        "created_at",
	"status":           "status",
	"locationCodeFrom": "location_code_from",
	"binCodeFrom":      "bin_code_from",
}

// List returns document headers matching the filter.
func (s *Service) List(f *ListFilter) (*ListResult, error) {
	q := s.db.Model(&models.Document{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.MenuID != nil {
		q = q.Where("menu_id = ?", *f.MenuID)
	}
	if len(f.BranchCodes) > 0 {
		q = q.Where("branch_code IN ?", f.BranchCodes)
	}
	if f.CreatedBy != "" {
		q = q.Where("created_by = ?", f.CreatedBy)
	}
	if f.CreatedFrom != "" {
		d, err := utils.NormalizeInputDate(f.CreatedFrom)
		if err != nil {
			return nil, fmt.Errorf("%w: createdFrom: %v", ErrValidation, err)
		}
		q = q.Where("created_at >= ?", d)
	}
	if f.CreatedTo != "" {
		d, err := utils.NormalizeInputDate(f.CreatedTo)
		if err != nil {
			return nil, fmt.Errorf("%w: createdTo: %v", ErrValidation, err)
		}
		q = q.Where("created_at < ?", d.AddDate(0, 0, 1))
	}
	if f.StockDateFrom != "" {
		d, err := utils.NormalizeInputDate(f.StockDateFrom)
		if err != nil {
			return nil, fmt.Errorf("%w: stockDateFrom: %v", ErrValidation, err)
		}
		q = q.Where("stock_out_date >= ?", d)
	}
	if f.StockDateTo != "" {
		d, err := utils.NormalizeInputDate(f.StockDateTo)
		if err != nil {
			return nil, fmt.Errorf("%w: stockDateTo: %v", ErrValidation, err)
		}
		q = q.Where("stock_out_date < ?", d.AddDate(0, 0, 1))
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}

	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(f.SortDir, "ASC") {
		dir = "ASC"
	}

	result := &ListResult{Page: page, PageSize: pageSize, Items: []models.Document{}}
	if err := q.Session(&gorm.Session{}).Count(&result.Total).Error; err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	err := q.Order(column + " " + dir).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&result.Items).Error
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return result, nil
}

// GetByDocNo loads one header with its lines in insertion order.
func (s *Service) GetByDocNo(docNo string) (*models.Document, error) {
	var doc models.Document
	err := s.db.Preload("Products", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&doc, "doc_no = ?", docNo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, docNo)
	}
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", docNo, err)
	}
	return &doc, nil
}

// GetLines loads the lines of one document in insertion order.
func (s *Service) GetLines(docNo string) ([]models.DocumentProduct, error) {
	doc, err := s.GetByDocNo(docNo)
	if err != nil {
		return nil, err
	}
	return doc.Products, nil
}

// LineView is a flattened line joined with the header fields mobile screens
// need when querying several documents at once.
type LineView struct {
	DocNo       string          `json:"docNo"`
	MenuID      int             `json:"menuId"`
	MenuName    string          `json:"menuName"`
	Status      string          `json:"status"`
	UUID        string          `json:"uuid"`
	ProductCode string          `json:"productCode"`
	Model       *string         `json:"model"`
	Quantity    decimal.Decimal `json:"quantity"`
	SerialNo    *string         `json:"serialNo"`
	Remark      *string         `json:"remark"`
	BranchCode  *string         `json:"branchCode"`
	PicURL      *string         `json:"picURL"`
}

// GetByDocNos returns the flattened lines of the given documents, preserving
// the caller's order. Unknown docNos are silently omitted.
func (s *Service) GetByDocNos(docNos []string) ([]LineView, error) {
	views := []LineView{}
	if len(docNos) == 0 {
		return views, nil
	}

	var docs []models.Document
	err := s.db.Preload("Products", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Where("doc_no IN ?", docNos).Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	byDocNo := make(map[string]*models.Document, len(docs))
	for i := range docs {
		byDocNo[docs[i].DocNo] = &docs[i]
	}
	for _, docNo := range docNos {
		doc, ok := byDocNo[docNo]
		if !ok {
			continue
		}
		for _, p := range doc.Products {
			views = append(views, LineView{
				DocNo:       doc.DocNo,
				MenuID:      doc.MenuID,
				MenuName:    doc.MenuName,
				Status:      doc.Status,
				UUID:        p.UUID,
				ProductCode: p.ProductCode,
				Model:       p.Model,
				Quantity:    p.Quantity,
				SerialNo:    p.SerialNo,
				Remark:      p.Remark,
				BranchCode:  p.BranchCode,
				PicURL:      p.PicURL,
			})
		}
	}
	return views, nil
}

// SkippedDoc names a document a bulk transition left untouched and why.
type SkippedDoc struct {
	DocNo  string `json:"docNo"`
	Reason string `json:"reason"`
}

// TransitionResult itemizes a bulk status transition.
type TransitionResult struct {
	Requested int          `json:"requested"`
	Updated   []string     `json:"updated"`
	Skipped   []SkippedDoc `json:"skipped"`
}

func dedupe(docNos []string) []string {
	seen := make(map[string]bool, len(docNos))
	out := make([]string, 0, len(docNos))
	for _, d := range docNos {
		d = strings.TrimSpace(d)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// SubmitForApproval moves the actor's Open documents to Pending Approval.
// Documents that are missing, not Open, or created by someone else are
// skipped with a reason.
func (s *Service) SubmitForApproval(docNos []string, actor string) (*TransitionResult, error) {
	return s.transition(docNos, models.StatusOpen, models.StatusPendingApproval, actor)
}

// ApproveReject moves Pending Approval documents to Approved or Rejected.
// No creator gate: approvers act on documents they did not create.
func (s *Service) ApproveReject(docNos []string, status string) (*TransitionResult, error) {
	if status != models.StatusApproved && status != models.StatusRejected {
		return nil, fmt.Errorf("%w: status must be %q or %q", ErrValidation,
			models.StatusApproved, models.StatusRejected)
	}
	return s.transition(docNos, models.StatusPendingApproval, status, "")
}

// transition performs one guarded bulk update, capturing the touched docNos
// through RETURNING, then classifies everything that was skipped.
func (s *Service) transition(docNos []string, fromStatus, toStatus, creator string) (*TransitionResult, error) {
	requested := dedupe(docNos)
	if len(requested) == 0 {
		return nil, fmt.Errorf("%w: docNo list is empty", ErrValidation)
	}

	result := &TransitionResult{
		Requested: len(requested),
		Updated:   []string{},
		Skipped:   []SkippedDoc{},
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}

	var updated []models.Document
	q := tx.Model(&updated).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "doc_no"}}}).
		Where("doc_no IN ? AND status = ?", requested, fromStatus)
	if creator != "" {
		q = q.Where("created_by = ?", creator)
	}
	if err := q.Update("status", toStatus).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("update documents: %w", err)
	}

	updatedSet := make(map[string]bool, len(updated))
	for _, d := range updated {
		updatedSet[d.DocNo] = true
		result.Updated = append(result.Updated, d.DocNo)
	}

	for _, docNo := range requested {
		if updatedSet[docNo] {
			continue
		}
		var doc models.Document
		err := tx.Select("doc_no", "status", "created_by").First(&doc, "doc_no = ?", docNo).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			result.Skipped = append(result.Skipped, SkippedDoc{DocNo: docNo, Reason: "not found"})
		case err != nil:
			tx.Rollback()
			return nil, fmt.Errorf("classify document %s: %w", docNo, err)
		case doc.Status != fromStatus:
			result.Skipped = append(result.Skipped, SkippedDoc{
				DocNo: docNo, Reason: fmt.Sprintf("status is %s", doc.Status),
			})
		case creator != "" && doc.CreatedBy != creator:
			result.Skipped = append(result.Skipped, SkippedDoc{DocNo: docNo, Reason: "not the creator"})
		default:
			result.Skipped = append(result.Skipped, SkippedDoc{DocNo: docNo, Reason: "not updated"})
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return result, nil
}

// DeleteResult reports a cascading document delete, including the fate of the
// uploaded files referenced by its lines and image rows.
type DeleteResult struct {
	DocNo        string   `json:"docNo"`
	RemovedFiles []string `json:"removedFiles"`
	FailedFiles  []string `json:"failedFiles"`
}

// Delete removes a document, its lines and its image rows in one transaction,
// then unlinks the referenced upload files best-effort after commit.
func (s *Service) Delete(docNo string) (*DeleteResult, error) {
	doc, err := s.GetByDocNo(docNo)
	if err != nil {
		return nil, err
	}

	fileNames := []string{}
	for _, p := range doc.Products {
		if p.PicURL != nil {
			if name := utils.BasenameFromURL(*p.PicURL); name != "" {
				fileNames = append(fileNames, name)
			}
		}
	}
	var images []models.ImageRecord
	if err := s.db.Where("key_ref1 = ?", docNo).Find(&images).Error; err != nil {
		return nil, fmt.Errorf("load images for %s: %w", docNo, err)
	}
	for _, img := range images {
		if name := utils.BasenameFromURL(img.PicURL); name != "" {
			fileNames = append(fileNames, name)
		}
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	if err := tx.Where("doc_no = ?", docNo).Delete(&models.DocumentProduct{}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("delete lines of %s: %w", docNo, err)
	}
	if err := tx.Where("key_ref1 = ?", docNo).Delete(&models.ImageRecord{}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("delete images of %s: %w", docNo, err)
	}
	if err := tx.Where("doc_no = ?", docNo).Delete(&models.Document{}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("delete document %s: %w", docNo, err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("commit delete of %s: %w", docNo, err)
	}

	result := &DeleteResult{DocNo: docNo, RemovedFiles: []string{}, FailedFiles: []string{}}
	for _, name := range fileNames {
		if utils.SafeUnlink(utils.SafeJoin(s.uploadDir, name)) {
			result.RemovedFiles = append(result.RemovedFiles, name)
		} else {
			result.FailedFiles = append(result.FailedFiles, name)
		}
	}
	return result, nil
}

// LineKey identifies a line for batch edit (uuid + productCode) or batch
// delete (uuid + docNo).
type LineKey struct {
	UUID        string `json:"uuid"`
	ProductCode string `json:"productCode,omitempty"`
	DocNo       string `json:"docNo,omitempty"`
}

// EditReport itemizes a batch line patch.
type EditReport struct {
	Requested    int       `json:"requested"`
	Updated      int       `json:"updated"`
	UpdatedItems []LineKey `json:"updatedItems"`
	NotFound     []LineKey `json:"notFound"`
	Skipped      []LineKey `json:"skipped"`
}

// editableFields maps the patchable JSON keys to columns. An absent key leaves
// the column untouched; an explicit null clears it (quantity nulls to zero).
var editableFields = map[string]string{
	"quantity": "quantity",
	"serialNo": "serial_no",
	"remark":   "remark",
}

// EditLines applies partial patches to lines matched by (uuid, productCode).
// Each item is a JSON object so that omitted keys can be told apart from
// explicit nulls.
func (s *Service) EditLines(items []map[string]any) (*EditReport, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: items must not be empty", ErrValidation)
	}

	report := &EditReport{
		Requested:    len(items),
		UpdatedItems: []LineKey{},
		NotFound:     []LineKey{},
		Skipped:      []LineKey{},
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}

	for _, item := range items {
		id, _ := item["uuid"].(string)
		code, _ := item["productCode"].(string)
		key := LineKey{UUID: id, ProductCode: code}
		if strings.TrimSpace(id) == "" || strings.TrimSpace(code) == "" {
			report.Skipped = append(report.Skipped, key)
			continue
		}

		updates := map[string]any{}
		for field, column := range editableFields {
			v, present := item[field]
			if !present {
				continue
			}
			if field == "quantity" {
				updates[column] = utils.ToDecimal(v)
			} else {
				updates[column] = v
			}
		}
		if len(updates) == 0 {
			report.Skipped = append(report.Skipped, key)
			continue
		}

		res := tx.Model(&models.DocumentProduct{}).
			Where("uuid = ? AND product_code = ?", id, code).
			Updates(updates)
		if res.Error != nil {
			tx.Rollback()
			return nil, fmt.Errorf("update line %s/%s: %w", id, code, res.Error)
		}
		if res.RowsAffected == 0 {
			report.NotFound = append(report.NotFound, key)
			continue
		}
		report.Updated++
		report.UpdatedItems = append(report.UpdatedItems, key)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("commit line edits: %w", err)
	}
	return report, nil
}

// DeleteLinesReport itemizes a batch line delete.
type DeleteLinesReport struct {
	Requested    int       `json:"requested"`
	Deleted      int       `json:"deleted"`
	DeletedItems []LineKey `json:"deletedItems"`
	NotFound     []LineKey `json:"notFound"`
}

// DeleteLines removes lines matched by (uuid, docNo) pairs. A malformed item
// rejects the whole request. It prefers one set-based DELETE capturing the
// removed pairs through RETURNING and falls back to a per-item loop when the
// engine rejects that, with identical reporting either way.
func (s *Service) DeleteLines(items []LineKey) (*DeleteLinesReport, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: items must not be empty", ErrValidation)
	}

	pairs := make([]LineKey, 0, len(items))
	for _, it := range items {
		it.UUID = strings.TrimSpace(it.UUID)
		it.DocNo = strings.TrimSpace(it.DocNo)
		if it.UUID == "" || it.DocNo == "" {
			return nil, fmt.Errorf("%w: every item needs uuid and docNo", ErrValidation)
		}
		pairs = append(pairs, it)
	}

	report := &DeleteLinesReport{
		Requested:    len(pairs),
		DeletedItems: []LineKey{},
		NotFound:     []LineKey{},
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}

	conds := make([]string, 0, len(pairs))
	args := make([]any, 0, len(pairs)*2)
	for _, p := range pairs {
		conds = append(conds, "(uuid = ? AND doc_no = ?)")
		args = append(args, p.UUID, p.DocNo)
	}

	var deleted []models.DocumentProduct
	err := tx.Clauses(clause.Returning{Columns: []clause.Column{
		{Name: "uuid"}, {Name: "doc_no"},
	}}).Where(strings.Join(conds, " OR "), args...).Delete(&deleted).Error
	if err == nil {
		deletedSet := make(map[LineKey]bool, len(deleted))
		for _, d := range deleted {
			deletedSet[LineKey{UUID: d.UUID, DocNo: d.DocNo}] = true
		}
		for _, p := range pairs {
			if deletedSet[LineKey{UUID: p.UUID, DocNo: p.DocNo}] {
				report.Deleted++
				report.DeletedItems = append(report.DeletedItems, p)
			} else {
				report.NotFound = append(report.NotFound, p)
			}
		}
		if err := tx.Commit().Error; err != nil {
			return nil, fmt.Errorf("commit line deletes: %w", err)
		}
		return report, nil
	}

	// Some engines cannot DELETE ... RETURNING; redo the work row by row.
	logging.LogError("documents", "DeleteLines", "set-based delete failed, falling back", nil, err)
	tx.Rollback()

	tx = s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	for _, p := range pairs {
		res := tx.Where("uuid = ? AND doc_no = ?", p.UUID, p.DocNo).
			Delete(&models.DocumentProduct{})
		if res.Error != nil {
			tx.Rollback()
			return nil, fmt.Errorf("delete line %s/%s: %w", p.UUID, p.DocNo, res.Error)
		}
		if res.RowsAffected == 0 {
			report.NotFound = append(report.NotFound, p)
			continue
		}
		report.Deleted++
		report.DeletedItems = append(report.DeletedItems, p)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("commit line deletes: %w", err)
	}
	return report, nil
}
