package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/pmcgroup/istock-backend/internal/config"
	"github.com/pmcgroup/istock-backend/internal/documents"
	"github.com/pmcgroup/istock-backend/internal/middleware"
	"github.com/pmcgroup/istock-backend/internal/nav"
	"github.com/pmcgroup/istock-backend/internal/navcache"
	"github.com/pmcgroup/istock-backend/internal/staging"
)

// Router wires HTTP routes to their handlers.
type Router struct {
	db     *gorm.DB
	cfg    *config.Config
	nav    *nav.Client
	store  *navcache.Store
	docs   *documents.Service
	bridge *staging.Bridge
	auth   *middleware.Auth
}

func NewRouter(db *gorm.DB, cfg *config.Config, navClient *nav.Client, store *navcache.Store) *Router {
	return &Router{
		db:     db,
		cfg:    cfg,
		nav:    navClient,
		store:  store,
		docs:   documents.NewService(db, cfg.UploadDir),
		bridge: staging.NewBridge(db, navClient),
		auth:   middleware.NewAuth(db, store, cfg.JWTSecret),
	}
}

// SetupRoutes builds the full route table.
func (rt *Router) SetupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", rt.Health).Methods(http.MethodGet)
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(rt.cfg.UploadDir))))
	r.HandleFunc("/api/Login", rt.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/Register", rt.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/ForgotPassword", rt.ForgotPassword).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(rt.auth.Middleware)

	api.HandleFunc("/Logout", rt.Logout).Methods(http.MethodPost)
	api.HandleFunc("/Profile", rt.Profile).Methods(http.MethodGet)
	api.HandleFunc("/DeleteAccount", rt.DeleteAccount).Methods(http.MethodPost)
	api.HandleFunc("/Menus", rt.Menus).Methods(http.MethodGet)

	api.HandleFunc("/CardList", rt.CardList).Methods(http.MethodGet)
	api.HandleFunc("/CardDetailList", rt.CardDetailList).Methods(http.MethodGet)
	api.HandleFunc("/ItemVariant", rt.ItemVariant).Methods(http.MethodGet)
	api.HandleFunc("/ItemProduct", rt.ItemProduct).Methods(http.MethodGet)

	api.HandleFunc("/Dashboard", rt.Dashboard).Methods(http.MethodGet)

	api.HandleFunc("/documents/new", rt.NewDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents", rt.CreateDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents", rt.ListDocuments).Methods(http.MethodGet)
	api.HandleFunc("/documents/submit-approval", rt.SubmitApproval).Methods(http.MethodPost)
	api.HandleFunc("/documents/approve", rt.ApproveDocuments).Methods(http.MethodPost)
	api.HandleFunc("/documents/{docNo}", rt.GetDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{docNo}", rt.DeleteDocument).Methods(http.MethodDelete)
	api.HandleFunc("/documents/{docNo}/products", rt.GetDocumentProducts).Methods(http.MethodGet)
	api.HandleFunc("/document-products", rt.GetMultiDocumentProducts).Methods(http.MethodGet)
	api.HandleFunc("/document-lines/edit", rt.EditDocumentLines).Methods(http.MethodPost)
	api.HandleFunc("/document-lines/delete", rt.DeleteDocumentLines).Methods(http.MethodPost)
	api.HandleFunc("/approve-to-erp", rt.ApproveToERP).Methods(http.MethodPost)

	api.HandleFunc("/transaction-history", rt.CreateTransactionHistory).Methods(http.MethodPost)
	api.HandleFunc("/transaction-history", rt.ListTransactionHistory).Methods(http.MethodGet)

	api.HandleFunc("/upload/image", rt.UploadImage).Methods(http.MethodPost)
	api.HandleFunc("/files-list", rt.FilesList).Methods(http.MethodGet)
	api.HandleFunc("/files/{name}", rt.DeleteFile).Methods(http.MethodDelete)

	return r
}

// Health reports liveness.
func (rt *Router) Health(w http.ResponseWriter, r *http.Request) {
	respondOK(w, "ok", map[string]string{"status": "healthy"})
}
