package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pmcgroup/istock-backend/internal/config"
	"github.com/pmcgroup/istock-backend/internal/models"
	"github.com/pmcgroup/istock-backend/internal/nav"
	"github.com/pmcgroup/istock-backend/internal/navcache"
	"github.com/pmcgroup/istock-backend/internal/utils"
)

func testRouter(t *testing.T) (*mux.Router, *gorm.DB, *navcache.Store) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.Document{}, &models.DocumentProduct{},
		&models.ImageRecord{}, &models.TransactionHistory{}, &models.StagingOutbox{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	store, err := navcache.Open(filepath.Join(t.TempDir(), "cache.db"), "Asia/Bangkok")
	if err != nil {
		t.Fatalf("open cache store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		Port:      "0",
		JWTSecret: "test-secret",
		UploadDir: t.TempDir(),
		NAV: config.NAVConfig{
			TimeoutMS:        100,
			StagingTimeoutMS: 100,
			MaxRetry:         1,
			RetryBaseMS:      1,
		},
	}
	router := NewRouter(db, cfg, nav.NewClient(cfg.NAV), store)
	return router.SetupRoutes(), db, store
}

func seedUser(t *testing.T, db *gorm.DB, username, password string, approver bool) {
	t.Helper()
	hashed, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		Username:   username,
		Password:   hashed,
		FullName:   "Test User",
		BranchCode: "BKK",
		IsApprover: approver,
		Actived:    true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func doJSON(t *testing.T, router *mux.Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, router *mux.Router, username, password string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/Login", "", map[string]string{
		"username": username,
		"password": base64.StdEncoding.EncodeToString([]byte(password)),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Data.Token == "" {
		t.Fatal("login response has no token")
	}
	return resp.Data.Token
}

func TestLoginAndSessionRevocation(t *testing.T) {
	router, db, _ := testRouter(t)
	seedUser(t, db, "somchai", "s3cret", false)

	// Wrong password.
	rec := doJSON(t, router, http.MethodPost, "/api/Login", "", map[string]string{
		"username": "somchai",
		"password": base64.StdEncoding.EncodeToString([]byte("wrong")),
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password returned %d", rec.Code)
	}

	token := login(t, router, "somchai", "s3cret")

	// Token opens protected routes.
	if rec := doJSON(t, router, http.MethodGet, "/api/Menus", token, nil); rec.Code != http.StatusOK {
		t.Errorf("Menus with token returned %d", rec.Code)
	}
	// No token does not.
	if rec := doJSON(t, router, http.MethodGet, "/api/Menus", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("Menus without token returned %d", rec.Code)
	}

	// A second login replaces the session; the first token is revoked.
	second := login(t, router, "somchai", "s3cret")
	if rec := doJSON(t, router, http.MethodGet, "/api/Menus", token, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("replaced token still accepted: %d", rec.Code)
	}

	// Logout revokes the current token.
	if rec := doJSON(t, router, http.MethodPost, "/api/Logout", second, nil); rec.Code != http.StatusOK {
		t.Fatalf("logout returned %d", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodGet, "/api/Menus", second, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("revoked token still accepted: %d", rec.Code)
	}
}

func TestLoginFallsBackToCachedNAVUsers(t *testing.T) {
	router, _, store := testRouter(t)

	err := store.Save(&navcache.Snapshot{
		Count: 1,
		Data: []map[string]any{
			{"userName": "navuser", "password": "navpass", "fullName": "NAV User", "branchCode": "CNX"},
		},
	})
	if err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	token := login(t, router, "navuser", "navpass")

	rec := doJSON(t, router, http.MethodGet, "/api/Profile", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Profile returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data userView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if resp.Data.Username != "navuser" || resp.Data.BranchCode != "CNX" {
		t.Errorf("unexpected profile: %+v", resp.Data)
	}

	// Wrong NAV password is rejected.
	rec = doJSON(t, router, http.MethodPost, "/api/Login", "", map[string]string{
		"username": "navuser",
		"password": base64.StdEncoding.EncodeToString([]byte("bad")),
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong NAV password returned %d", rec.Code)
	}
}

func TestApproveRequiresApproverRole(t *testing.T) {
	router, db, _ := testRouter(t)
	seedUser(t, db, "worker", "pw", false)
	seedUser(t, db, "boss", "pw", true)

	workerToken := login(t, router, "worker", "pw")
	bossToken := login(t, router, "boss", "pw")

	body := map[string]any{"docNo": "MI-260901-1234", "status": "Approved"}
	if rec := doJSON(t, router, http.MethodPost, "/api/documents/approve", workerToken, body); rec.Code != http.StatusForbidden {
		t.Errorf("non-approver got %d, want 403", rec.Code)
	}
	rec := doJSON(t, router, http.MethodPost, "/api/documents/approve", bossToken, body)
	if rec.Code != http.StatusOK {
		t.Errorf("approver got %d: %s", rec.Code, rec.Body.String())
	}
}
