package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pmcgroup/istock-backend/internal/logging"
	"github.com/pmcgroup/istock-backend/internal/middleware"
	"github.com/pmcgroup/istock-backend/internal/models"
	"github.com/pmcgroup/istock-backend/internal/utils"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userView struct {
	Username   string `json:"username"`
	FullName   string `json:"fullName"`
	BranchCode string `json:"branchCode"`
	IsApprover bool   `json:"isApprover"`
}

// Login authenticates against the local user table first, then falls back to
// the NAV user list (cached snapshot, then a live pull). Local logins store
// the issued token as the single valid session.
func (rt *Router) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	password := utils.DecodeClientPassword(req.Password)

	var user models.User
	err := rt.db.First(&user, "username = ?", req.Username).Error
	switch {
	case err == nil:
		if !user.Actived {
			respondError(w, http.StatusUnauthorized, "account is disabled")
			return
		}
		if !utils.CheckPasswordHash(password, user.Password) {
			respondError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		token, tokenErr := utils.GenerateToken(user.Username, rt.cfg.JWTSecret)
		if tokenErr != nil {
			logging.LogError("handlers", "Login", "issue token", nil, tokenErr)
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		now := time.Now()
		updateErr := rt.db.Model(&user).Updates(map[string]any{
			"current_token": token,
			"last_login_at": now,
		}).Error
		if updateErr != nil {
			logging.LogError("handlers", "Login", "store session token", nil, updateErr)
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		respondOK(w, "login success", map[string]any{
			"token": token,
			"user": userView{
				Username:   user.Username,
				FullName:   user.FullName,
				BranchCode: user.BranchCode,
				IsApprover: user.IsApprover,
			},
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		rt.loginViaNAV(w, r, req.Username, password)
	default:
		logging.LogError("handlers", "Login", "load user", nil, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// loginViaNAV resolves the user from the cached NAV snapshot, pulling live
// when the cache has nothing, and issues a token without creating a local row.
func (rt *Router) loginViaNAV(w http.ResponseWriter, r *http.Request, username, password string) {
	record, err := rt.store.FindUserByName(username)
	if err != nil {
		logging.LogError("handlers", "loginViaNAV", "cache lookup", nil, err)
	}
	if record == nil {
		users, fetchErr := rt.nav.FetchUsers(r.Context())
		if fetchErr != nil {
			logging.LogError("handlers", "loginViaNAV", "live NAV lookup", nil, fetchErr)
			respondError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		for _, u := range users {
			if name, _ := u["userName"].(string); name == username {
				record = u
				break
			}
		}
	}
	if record == nil {
		respondError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	navPassword, _ := record["password"].(string)
	if navPassword == "" || navPassword != password {
		respondError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := utils.GenerateToken(username, rt.cfg.JWTSecret)
	if err != nil {
		logging.LogError("handlers", "loginViaNAV", "issue token", nil, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	fullName, _ := record["fullName"].(string)
	branchCode, _ := record["branchCode"].(string)
	respondOK(w, "login success", map[string]any{
		"token": token,
		"user": userView{
			Username:   username,
			FullName:   fullName,
			BranchCode: branchCode,
			IsApprover: false,
		},
	})
}

// Logout clears the stored session token, revoking it immediately. NAV-backed
// sessions have no stored token and simply expire.
func (rt *Router) Logout(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	err := rt.db.Model(&models.User{}).
		Where("username = ?", actor.Username).
		Update("current_token", "").Error
	if err != nil {
		logging.LogError("handlers", "Logout", "clear session token", nil, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondOK(w, "logout success", nil)
}

type registerRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	FullName   string `json:"fullName"`
	BranchCode string `json:"branchCode"`
}

// Register creates a local account with a bcrypt-hashed password.
func (rt *Router) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	var count int64
	if err := rt.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		logging.LogError("handlers", "Register", "check username", nil, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if count > 0 {
		respondError(w, http.StatusConflict, "username already exists")
		return
	}

	hashed, err := utils.HashPassword(utils.DecodeClientPassword(req.Password))
	if err != nil {
		logging.LogError("handlers", "Register", "hash password", nil, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	user := models.User{
		Username:   req.Username,
		Password:   hashed,
		FullName:   strings.TrimSpace(req.FullName),
		BranchCode: strings.TrimSpace(req.BranchCode),
		Actived:    true,
	}
	if err := rt.db.Create(&user).Error; err != nil {
		logging.LogError("handlers", "Register", "create user", nil, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusCreated, "register success", userView{
		Username:   user.Username,
		FullName:   user.FullName,
		BranchCode: user.BranchCode,
		IsApprover: user.IsApprover,
	})
}

type forgotPasswordRequest struct {
	Username    string `json:"username"`
	NewPassword string `json:"newPassword"`
}

// ForgotPassword resets a local account's password. Only users with a local
// row can reset; NAV-managed credentials stay with NAV.
func (rt *Router) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.NewPassword == "" {
		respondError(w, http.StatusBadRequest, "username and newPassword are required")
		return
	}

	var user models.User
	err := rt.db.First(&user, "username = ?", req.Username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusBadRequest, "username not found in system")
		return
	}
	if err != nil {
		logging.LogError("handlers", "ForgotPassword", "load user", nil, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	hashed, err := utils.HashPassword(utils.DecodeClientPassword(req.NewPassword))
	if err != nil {
		logging.LogError("handlers", "ForgotPassword", "hash password", nil, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	// The old session dies with the old password.
	err = rt.db.Model(&user).Updates(map[string]any{
		"password":      hashed,
		"current_token": "",
	}).Error
	if err != nil {
		logging.LogError("handlers", "ForgotPassword", "store password", nil, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondOK(w, "reset password success", nil)
}

// Profile returns the acting identity.
func (rt *Router) Profile(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	respondOK(w, "profile", userView{
		Username:   actor.Username,
		FullName:   actor.FullName,
		BranchCode: actor.BranchCode,
		IsApprover: actor.IsApprover,
	})
}

// DeleteAccount deactivates the local account and revokes its session.
func (rt *Router) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	res := rt.db.Model(&models.User{}).
		Where("username = ?", actor.Username).
		Updates(map[string]any{"actived": false, "current_token": ""})
	if res.Error != nil {
		logging.LogError("handlers", "DeleteAccount", "deactivate user", nil, res.Error)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if res.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, "no local account to delete")
		return
	}
	respondOK(w, "account deleted", nil)
}

// Menus returns the static stock-move menu list.
func (rt *Router) Menus(w http.ResponseWriter, r *http.Request) {
	menus := []map[string]any{}
	for id := models.MenuReceive; id <= models.MenuCount; id++ {
		menus = append(menus, map[string]any{
			"menuId":   id,
			"menuName": models.MenuName(id),
		})
	}
	respondOK(w, "menus", menus)
}
