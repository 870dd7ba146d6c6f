package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pmcgroup/istock-backend/internal/logging"
	"github.com/pmcgroup/istock-backend/internal/middleware"
	"github.com/pmcgroup/istock-backend/internal/nav"
)

// CardList proxies the NAV transfer-order headers for the caller's branch.
func (rt *Router) CardList(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	menuID, err := strconv.Atoi(r.URL.Query().Get("menuId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "menuId is required")
		return
	}
	branchCode := strings.TrimSpace(r.URL.Query().Get("branchCode"))
	if branchCode == "" {
		branchCode = actor.BranchCode
	}

	records, err := rt.nav.FetchCardList(r.Context(), menuID, nav.Eq("Transfer_to_Code", branchCode))
	if err != nil {
		logging.LogError("handlers", "CardList", "NAV fetch", map[string]any{"menuId": menuID}, err)
		respondError(w, http.StatusBadGateway, "failed to fetch card list")
		return
	}
	respondOK(w, "card list", records)
}

// CardDetailList proxies the NAV transfer-order lines for one document.
func (rt *Router) CardDetailList(w http.ResponseWriter, r *http.Request) {
	menuID, err := strconv.Atoi(r.URL.Query().Get("menuId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "menuId is required")
		return
	}
	docNo := strings.TrimSpace(r.URL.Query().Get("docNo"))
	if docNo == "" {
		respondError(w, http.StatusBadRequest, "docNo is required")
		return
	}

	records, count, err := rt.nav.FetchCardDetail(r.Context(), menuID, docNo)
	if err != nil {
		logging.LogError("handlers", "CardDetailList", "NAV fetch", map[string]any{"docNo": docNo}, err)
		respondError(w, http.StatusBadGateway, "failed to fetch card detail")
		return
	}
	respondOK(w, "card detail", map[string]any{"count": count, "items": records})
}

// ItemVariant proxies the NAV variant list for one item.
func (rt *Router) ItemVariant(w http.ResponseWriter, r *http.Request) {
	itemNo := strings.TrimSpace(r.URL.Query().Get("itemNo"))
	if itemNo == "" {
		respondError(w, http.StatusBadRequest, "itemNo is required")
		return
	}

	records, err := rt.nav.FetchItemVariants(r.Context(), itemNo)
	if err != nil {
		logging.LogError("handlers", "ItemVariant", "NAV fetch", map[string]any{"itemNo": itemNo}, err)
		respondError(w, http.StatusBadGateway, "failed to fetch item variants")
		return
	}
	respondOK(w, "item variants", records)
}

// ItemProduct proxies the NAV item inventory lookup scoped to a branch.
func (rt *Router) ItemProduct(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	itemNo := strings.TrimSpace(r.URL.Query().Get("itemNo"))
	if itemNo == "" {
		respondError(w, http.StatusBadRequest, "itemNo is required")
		return
	}
	branchCode := strings.TrimSpace(r.URL.Query().Get("branchCode"))
	if branchCode == "" {
		branchCode = actor.BranchCode
	}

	records, err := rt.nav.FetchItems(r.Context(), itemNo, branchCode)
	if err != nil {
		logging.LogError("handlers", "ItemProduct", "NAV fetch", map[string]any{"itemNo": itemNo}, err)
		respondError(w, http.StatusBadGateway, "failed to fetch items")
		return
	}
	respondOK(w, "items", records)
}
