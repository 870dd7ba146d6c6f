package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/pmcgroup/istock-backend/internal/models"
	"github.com/pmcgroup/istock-backend/internal/navcache"
	"github.com/pmcgroup/istock-backend/internal/utils"
)

// Actor is the authenticated identity attached to the request context.
type Actor struct {
	Username   string
	FullName   string
	BranchCode string
	IsApprover bool
}

type contextKey int

const actorKey contextKey = iota

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (*Actor, bool) {
	actor, ok := ctx.Value(actorKey).(*Actor)
	return actor, ok
}

// Auth verifies Bearer tokens. For local accounts the presented token must
// match the CurrentToken column, which makes the database the single source
// of truth for revocation. NAV-backed accounts have no local row; they are
// resolved against the reference cache and live only as long as the token.
type Auth struct {
	db     *gorm.DB
	store  *navcache.Store
	secret string
}

func NewAuth(db *gorm.DB, store *navcache.Store, secret string) *Auth {
	return &Auth{db: db, store: store, secret: secret}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
		"data":    nil,
	})
}

// Middleware authenticates the request and stores the actor in the context.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w, "missing bearer token")
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims, err := utils.ValidateToken(tokenString, a.secret)
		if err != nil {
			unauthorized(w, "invalid or expired token")
			return
		}
		username, _ := claims["username"].(string)
		if username == "" {
			unauthorized(w, "invalid token claims")
			return
		}

		var user models.User
		err = a.db.First(&user, "username = ?", username).Error
		switch {
		case err == nil:
			if !user.Actived {
				unauthorized(w, "account is disabled")
				return
			}
			if user.CurrentToken != tokenString {
				unauthorized(w, "session has been revoked")
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), actorKey, &Actor{
				Username:   user.Username,
				FullName:   user.FullName,
				BranchCode: user.BranchCode,
				IsApprover: user.IsApprover,
			}))
		case errors.Is(err, gorm.ErrRecordNotFound):
			record, lookupErr := a.store.FindUserByName(username)
			if lookupErr != nil || record == nil {
				unauthorized(w, "unknown user")
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), actorKey, actorFromRecord(username, record)))
		default:
			unauthorized(w, "authentication failed")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// actorFromRecord builds the acting identity from a raw NAV user record.
func actorFromRecord(username string, record map[string]any) *Actor {
	fullName, _ := record["fullName"].(string)
	branchCode, _ := record["branchCode"].(string)
	return &Actor{
		Username:   username,
		FullName:   fullName,
		BranchCode: branchCode,
		IsApprover: truthy(record["isApprover"]),
	}
}

// truthy interprets the loose boolean encodings NAV records use.
func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "1":
			return true
		}
	case float64:
		return b != 0
	}
	return false
}
