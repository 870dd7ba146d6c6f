package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pmcgroup/istock-backend/internal/logging"
	"github.com/pmcgroup/istock-backend/internal/middleware"
	"github.com/pmcgroup/istock-backend/internal/models"
	"github.com/pmcgroup/istock-backend/internal/utils"
)

type historyRequest struct {
	DocNo            string `json:"docNo"`
	MenuID           int    `json:"menuId"`
	MenuName         string `json:"menuName"`
	StockOutDate     string `json:"stockOutDate"`
	Remark           string `json:"remark"`
	LocationCodeFrom string `json:"locationCodeFrom"`
	BinCodeFrom      string `json:"binCodeFrom"`
	LocationCodeTo   string `json:"locationCodeTo"`
	BinCodeTo        string `json:"binCodeTo"`
	BranchCode       string `json:"branchCode"`
	Status           string `json:"status"`
	Products         []any  `json:"products"`
}

// CreateTransactionHistory appends one immutable snapshot of a document.
func (rt *Router) CreateTransactionHistory(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req historyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.DocNo) == "" {
		respondError(w, http.StatusBadRequest, "docNo is required")
		return
	}

	var stockOutDate *time.Time
	if strings.TrimSpace(req.StockOutDate) != "" {
		d, err := utils.NormalizeInputDate(strings.TrimSpace(req.StockOutDate))
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		stockOutDate = &d
	}

	products, err := json.Marshal(req.Products)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid products payload")
		return
	}

	row := models.TransactionHistory{
		DocNo:            strings.TrimSpace(req.DocNo),
		MenuID:           req.MenuID,
		MenuName:         req.MenuName,
		StockOutDate:     stockOutDate,
		Remark:           req.Remark,
		LocationCodeFrom: req.LocationCodeFrom,
		BinCodeFrom:      req.BinCodeFrom,
		LocationCodeTo:   req.LocationCodeTo,
		BinCodeTo:        req.BinCodeTo,
		BranchCode:       req.BranchCode,
		Status:           req.Status,
		Product:          products,
		CreatedBy:        actor.Username,
	}
	if err := rt.db.Create(&row).Error; err != nil {
		logging.LogError("handlers", "CreateTransactionHistory", "insert history",
			map[string]any{"docNo": row.DocNo}, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusCreated, "history recorded", row)
}

// ListTransactionHistory returns recorded snapshots, newest first.
func (rt *Router) ListTransactionHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := rt.db.Model(&models.TransactionHistory{})
	if v := q.Get("docNo"); v != "" {
		query = query.Where("doc_no = ?", v)
	}
	if v := q.Get("branchCode"); v != "" {
		query = query.Where("branch_code IN ?", parsePipe(v))
	}
	if v := q.Get("menuId"); v != "" {
		menuID, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "menuId must be a number")
			return
		}
		query = query.Where("menu_id = ?", menuID)
	}
	if v := q.Get("createdBy"); v != "" {
		query = query.Where("created_by = ?", v)
	}
	if v := q.Get("createdFrom"); v != "" {
		d, err := utils.NormalizeInputDate(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		query = query.Where("created_at >= ?", d)
	}
	if v := q.Get("createdTo"); v != "" {
		d, err := utils.NormalizeInputDate(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		query = query.Where("created_at < ?", d.AddDate(0, 0, 1))
	}

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logging.LogError("handlers", "ListTransactionHistory", "count history", nil, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	rows := []models.TransactionHistory{}
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		logging.LogError("handlers", "ListTransactionHistory", "list history", nil, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondOK(w, "transaction history", map[string]any{
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
		"items":    rows,
	})
}
