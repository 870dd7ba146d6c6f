package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/pmcgroup/istock-backend/internal/documents"
	"github.com/pmcgroup/istock-backend/internal/logging"
	"github.com/pmcgroup/istock-backend/internal/middleware"
	"github.com/pmcgroup/istock-backend/internal/models"
)

// parsePipe splits a pipe-delimited value into trimmed, non-empty parts.
func parsePipe(s string) []string {
	parts := []string{}
	for _, p := range strings.Split(s, "|") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// docNoSet accepts either a pipe-delimited docNo string or an explicit array.
type docNoSet struct {
	DocNo  string   `json:"docNo"`
	DocNos []string `json:"docNos"`
}

func (s *docNoSet) list() []string {
	if len(s.DocNos) > 0 {
		return s.DocNos
	}
	return parsePipe(s.DocNo)
}

type newDocumentRequest struct {
	MenuID *int `json:"menuId"`
}

// NewDocument issues a fresh document number for a menu without persisting
// anything. The client sends the number back on the create call.
func (rt *Router) NewDocument(w http.ResponseWriter, r *http.Request) {
	var req newDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MenuID == nil {
		respondError(w, http.StatusBadRequest, "menuId is required")
		return
	}
	menuID := *req.MenuID
	if menuID < 0 || menuID > 3 {
		respondError(w, http.StatusNotFound, "menu not found")
		return
	}

	now := time.Now()
	respondOK(w, "document number issued", map[string]any{
		"docNo":     documents.GenerateDocNo(menuID, now),
		"menuId":    menuID,
		"menuName":  models.MenuName(menuID),
		"status":    models.StatusOpen,
		"createdAt": now.UTC().Format(time.RFC3339),
		"products":  []any{},
	})
}

// Dashboard rolls up the tracked statuses per menu group.
func (rt *Router) Dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	groups, err := rt.docs.Dashboard(parsePipe(q.Get("branchCode")), parsePipe(q.Get("user")))
	if err != nil {
		logging.LogError("handlers", "Dashboard", "load rollup", nil, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondOK(w, "dashboard", groups)
}

// CreateDocument creates a document with its lines in one call.
func (rt *Router) CreateDocument(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req documents.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := rt.docs.Create(actor.Username, &req)
	if err != nil {
		respondServiceError(w, err, result)
		return
	}
	respondJSON(w, http.StatusCreated, "document created", result)
}

// ListDocuments returns a filtered, paged document list.
func (rt *Router) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := &documents.ListFilter{
		Status:        q.Get("status"),
		BranchCodes:   parsePipe(q.Get("branchCode")),
		CreatedBy:     q.Get("createdBy"),
		CreatedFrom:   q.Get("createdFrom"),
		CreatedTo:     q.Get("createdTo"),
		StockDateFrom: q.Get("stockDateFrom"),
		StockDateTo:   q.Get("stockDateTo"),
		SortBy:        q.Get("sortBy"),
		SortDir:       q.Get("sortDir"),
	}
	if v := q.Get("menuId"); v != "" {
		menuID, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "menuId must be a number")
			return
		}
		filter.MenuID = &menuID
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PageSize, _ = strconv.Atoi(q.Get("pageSize"))

	result, err := rt.docs.List(filter)
	if err != nil {
		respondServiceError(w, err, nil)
		return
	}
	respondOK(w, "documents", result)
}

// GetDocument returns one header with its lines.
func (rt *Router) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.docs.GetByDocNo(mux.Vars(r)["docNo"])
	if err != nil {
		respondServiceError(w, err, nil)
		return
	}
	respondOK(w, "document", doc)
}

// GetDocumentProducts returns the lines of one document.
func (rt *Router) GetDocumentProducts(w http.ResponseWriter, r *http.Request) {
	lines, err := rt.docs.GetLines(mux.Vars(r)["docNo"])
	if err != nil {
		respondServiceError(w, err, nil)
		return
	}
	respondOK(w, "document products", lines)
}

// GetMultiDocumentProducts returns the flattened lines of several documents,
// selected with ?docNo=a|b|c.
func (rt *Router) GetMultiDocumentProducts(w http.ResponseWriter, r *http.Request) {
	docNos := parsePipe(r.URL.Query().Get("docNo"))
	if len(docNos) == 0 {
		respondError(w, http.StatusBadRequest, "docNo is required")
		return
	}
	views, err := rt.docs.GetByDocNos(docNos)
	if err != nil {
		respondServiceError(w, err, nil)
		return
	}
	respondOK(w, "document products", views)
}

// SubmitApproval moves the caller's Open documents to Pending Approval.
func (rt *Router) SubmitApproval(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req docNoSet
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := rt.docs.SubmitForApproval(req.list(), actor.Username)
	if err != nil {
		respondServiceError(w, err, result)
		return
	}
	respondOK(w, "submit approval processed", result)
}

type approveRequest struct {
	docNoSet
	Status string `json:"status"`
}

// ApproveDocuments moves Pending Approval documents to Approved or Rejected.
// Restricted to approvers.
func (rt *Router) ApproveDocuments(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	if !actor.IsApprover {
		respondError(w, http.StatusForbidden, "approver role required")
		return
	}

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := rt.docs.ApproveReject(req.list(), req.Status)
	if err != nil {
		respondServiceError(w, err, result)
		return
	}
	respondOK(w, "approval processed", result)
}

// DeleteDocument removes a document, its lines, its image rows and the
// uploaded files they reference.
func (rt *Router) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	result, err := rt.docs.Delete(mux.Vars(r)["docNo"])
	if err != nil {
		respondServiceError(w, err, nil)
		return
	}
	respondOK(w, "document deleted", result)
}

type editLinesRequest struct {
	Items []map[string]any `json:"items"`
}

// EditDocumentLines applies partial patches to lines keyed by
// (uuid, productCode).
func (rt *Router) EditDocumentLines(w http.ResponseWriter, r *http.Request) {
	var req editLinesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	report, err := rt.docs.EditLines(req.Items)
	if err != nil {
		respondServiceError(w, err, report)
		return
	}
	respondOK(w, "lines updated", report)
}

type deleteLinesRequest struct {
	Items []documents.LineKey `json:"items"`
}

// DeleteDocumentLines removes lines keyed by (uuid, docNo).
func (rt *Router) DeleteDocumentLines(w http.ResponseWriter, r *http.Request) {
	var req deleteLinesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	report, err := rt.docs.DeleteLines(req.Items)
	if err != nil {
		respondServiceError(w, err, report)
		return
	}
	respondOK(w, "lines deleted", report)
}

// ApproveToERP queues and pushes approved documents to the ERP staging table.
func (rt *Router) ApproveToERP(w http.ResponseWriter, r *http.Request) {
	var req docNoSet
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	docNos := req.list()
	if len(docNos) == 0 {
		respondError(w, http.StatusBadRequest, "docNo is required")
		return
	}

	result, err := rt.bridge.PushDocuments(r.Context(), docNos)
	if err != nil {
		logging.LogError("handlers", "ApproveToERP", "bridge push",
			map[string]any{"docNos": docNos}, err)
		respondError(w, http.StatusInternalServerError, "failed to push documents")
		return
	}
	respondOK(w, "staging push processed", result)
}
