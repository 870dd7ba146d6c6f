package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/pmcgroup/istock-backend/internal/models"
)

func TestForgotPasswordResetsLocalAccount(t *testing.T) {
	router, _, _ := testRouter(t)

	// Unknown users cannot reset.
	rec := doJSON(t, router, http.MethodPost, "/api/ForgotPassword", "", map[string]string{
		"username":    "nobody",
		"newPassword": base64.StdEncoding.EncodeToString([]byte("pw")),
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown user returned %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "username not found in system") {
		t.Errorf("unexpected message: %s", rec.Body.String())
	}

	// Missing fields are rejected.
	rec = doJSON(t, router, http.MethodPost, "/api/ForgotPassword", "", map[string]string{
		"username": "somchai",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing newPassword returned %d, want 400", rec.Code)
	}
}

func TestForgotPasswordRevokesOldSession(t *testing.T) {
	router, db, _ := testRouter(t)
	seedUser(t, db, "somchai", "old-pw", false)

	oldToken := login(t, router, "somchai", "old-pw")

	rec := doJSON(t, router, http.MethodPost, "/api/ForgotPassword", "", map[string]string{
		"username":    "somchai",
		"newPassword": base64.StdEncoding.EncodeToString([]byte("new-pw")),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reset returned %d: %s", rec.Code, rec.Body.String())
	}

	// The old credentials and the old session are both dead.
	rec = doJSON(t, router, http.MethodPost, "/api/Login", "", map[string]string{
		"username": "somchai",
		"password": base64.StdEncoding.EncodeToString([]byte("old-pw")),
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("old password still accepted: %d", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodGet, "/api/Menus", oldToken, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("old session still accepted: %d", rec.Code)
	}

	login(t, router, "somchai", "new-pw")
}

func TestNewDocumentIssuesNumberWithoutPersisting(t *testing.T) {
	router, db, _ := testRouter(t)
	seedUser(t, db, "somchai", "pw", false)
	token := login(t, router, "somchai", "pw")

	rec := doJSON(t, router, http.MethodPost, "/api/documents/new", token, map[string]any{"menuId": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("new document returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data struct {
			DocNo    string `json:"docNo"`
			MenuID   int    `json:"menuId"`
			MenuName string `json:"menuName"`
			Status   string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !regexp.MustCompile(`^MO-\d{6}-[1-9]\d{3}$`).MatchString(resp.Data.DocNo) {
		t.Errorf("docNo = %q", resp.Data.DocNo)
	}
	if resp.Data.Status != models.StatusOpen || resp.Data.MenuName != "Scan-Outbound" {
		t.Errorf("unexpected payload: %+v", resp.Data)
	}

	var count int64
	db.Model(&models.Document{}).Count(&count)
	if count != 0 {
		t.Errorf("issuing a number must not persist a document, found %d", count)
	}

	// Missing and unknown menus.
	if rec := doJSON(t, router, http.MethodPost, "/api/documents/new", token, map[string]any{}); rec.Code != http.StatusBadRequest {
		t.Errorf("missing menuId returned %d, want 400", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodPost, "/api/documents/new", token, map[string]any{"menuId": 4}); rec.Code != http.StatusNotFound {
		t.Errorf("unknown menuId returned %d, want 404", rec.Code)
	}
}

func TestCreateDocumentRequiresDocNo(t *testing.T) {
	router, db, _ := testRouter(t)
	seedUser(t, db, "somchai", "pw", false)
	token := login(t, router, "somchai", "pw")

	body := map[string]any{
		"menuId":     0,
		"branchCode": "BKK",
		"products":   []map[string]any{{"productCode": "ITEM-01", "quantity": 1}},
	}
	rec := doJSON(t, router, http.MethodPost, "/api/documents", token, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("create without docNo returned %d, want 400: %s", rec.Code, rec.Body.String())
	}

	var count int64
	db.Model(&models.Document{}).Count(&count)
	if count != 0 {
		t.Errorf("rejected create must not persist, found %d documents", count)
	}

	body["docNo"] = "MI-260901-8000"
	rec = doJSON(t, router, http.MethodPost, "/api/documents", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create with docNo returned %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDashboardEndpointShape(t *testing.T) {
	router, db, _ := testRouter(t)
	seedUser(t, db, "somchai", "pw", false)
	token := login(t, router, "somchai", "pw")

	doc := models.Document{
		DocNo:      "MO-260901-8100",
		MenuID:     models.MenuOutbound,
		MenuName:   models.MenuName(models.MenuOutbound),
		BranchCode: "BKK",
		Status:     models.StatusPendingApproval,
		CreatedBy:  "somchai",
	}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("seed document: %v", err)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/Dashboard?branchCode=BKK&user=som", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data []struct {
			MenuID int `json:"menuId"`
			Items  []struct {
				Status string `json:"status"`
				Count  int64  `json:"count"`
			} `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(resp.Data))
	}
	found := false
	for _, g := range resp.Data {
		if g.MenuID != models.MenuOutbound {
			continue
		}
		for _, item := range g.Items {
			if item.Status == models.StatusPendingApproval && item.Count == 1 {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("pending outbound count missing: %s", rec.Body.String())
	}
}
