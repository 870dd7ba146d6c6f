package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/pmcgroup/istock-backend/internal/logging"
	"github.com/pmcgroup/istock-backend/internal/middleware"
	"github.com/pmcgroup/istock-backend/internal/models"
	"github.com/pmcgroup/istock-backend/internal/utils"
)

const maxUploadBytes = 20 << 20

// UploadImage stores one multipart image and records its metadata. The file
// gets a fresh uuid name; the original extension is kept.
func (rt *Router) UploadImage(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	if err := utils.EnsureDir(rt.cfg.UploadDir); err != nil {
		logging.LogError("handlers", "UploadImage", "create upload dir", nil, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
	dst, err := os.Create(utils.SafeJoin(rt.cfg.UploadDir, name))
	if err != nil {
		logging.LogError("handlers", "UploadImage", "create file", nil, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		logging.LogError("handlers", "UploadImage", "write file", nil, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	record := models.ImageRecord{
		KeyRef1:   r.FormValue("keyRef1"),
		KeyRef2:   r.FormValue("keyRef2"),
		KeyRef3:   r.FormValue("keyRef3"),
		Remark:    r.FormValue("remark"),
		PicURL:    "/uploads/" + name,
		CreatedBy: actor.Username,
	}
	if err := rt.db.Create(&record).Error; err != nil {
		logging.LogError("handlers", "UploadImage", "insert image row", nil, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusCreated, "image uploaded", record)
}

// FilesList lists the files in the upload directory.
func (rt *Router) FilesList(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(rt.cfg.UploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			respondOK(w, "files", []any{})
			return
		}
		logging.LogError("handlers", "FilesList", "read upload dir", nil, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	files := []map[string]any{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, map[string]any{
			"name":       e.Name(),
			"size":       info.Size(),
			"modifiedAt": info.ModTime(),
		})
	}
	respondOK(w, "files", files)
}

// DeleteFile removes one uploaded file by name, along with its image rows.
func (rt *Router) DeleteFile(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(mux.Vars(r)["name"])
	if name == "" || name == "." || name == "/" {
		respondError(w, http.StatusBadRequest, "file name is required")
		return
	}

	if !utils.SafeUnlink(utils.SafeJoin(rt.cfg.UploadDir, name)) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("file %s not found", name))
		return
	}
	if err := rt.db.Where("pic_url = ?", "/uploads/"+name).Delete(&models.ImageRecord{}).Error; err != nil {
		logging.LogError("handlers", "DeleteFile", "delete image rows",
			map[string]any{"name": name}, err)
	}
	respondOK(w, "file deleted", map[string]string{"name": name})
}
