package handler

import (
	"net/http"
	"time"
)

type uploadInitRequest struct {
	Filename string `json:"filename"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
	Folder   string `json:"folder,omitempty"`
	Bucket   string `json:"bucket"`
}

func (h *Handler) initUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadInitRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Bucket == "" {
		h.writeError(w, r, validationError("bucket name is required"))
		return
	}
	if req.Filename == "" {
		h.writeError(w, r, validationError("filename is required"))
		return
	}

	p := projectFrom(r.Context())
	ticket, err := h.files.InitUpload(r.Context(), p.ID, req.Bucket, req.Filename, req.Folder)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

type uploadCompleteRequest struct {
	ObjectKey string `json:"object_key"`
	FileSize  int64  `json:"file_size"`
	FileType  string `json:"file_type"`
	Bucket    string `json:"bucket"`
}

type uploadCompleteResponse struct {
	ObjectKey string `json:"object_key"`
	FinalURL  string `json:"final_url"`
	Mime      string `json:"mime"`
	Size      int64  `json:"size"`
}

func (h *Handler) completeUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadCompleteRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Bucket == "" {
		h.writeError(w, r, validationError("bucket name is required"))
		return
	}
	if req.ObjectKey == "" {
		h.writeError(w, r, validationError("object key is required"))
		return
	}

	p := projectFrom(r.Context())
	rec, err := h.files.CompleteUpload(r.Context(), p.ID, req.Bucket, req.ObjectKey, req.FileSize, req.FileType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	finalURL, err := h.files.PublicURL(r.Context(), p.ID, req.Bucket, req.ObjectKey)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadCompleteResponse{
		ObjectKey: rec.ObjectKey,
		FinalURL:  finalURL,
		Mime:      rec.ContentType,
		Size:      rec.Size,
	})
}

type fileRequest struct {
	ObjectKey string `json:"object_key"`
	Bucket    string `json:"bucket"`
	// ExpiresIn is seconds; zero means the configured default.
	ExpiresIn int64 `json:"expires_in,omitempty"`
}

func (h *Handler) deleteFile(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Bucket == "" {
		h.writeError(w, r, validationError("bucket name is required"))
		return
	}

	p := projectFrom(r.Context())
	if err := h.files.Delete(r.Context(), p.ID, req.Bucket, req.ObjectKey); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) fileURL(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Bucket == "" {
		h.writeError(w, r, validationError("bucket name is required"))
		return
	}

	p := projectFrom(r.Context())
	expiry := time.Duration(req.ExpiresIn) * time.Second
	access, err := h.files.AccessURL(r.Context(), p.ID, req.Bucket, req.ObjectKey, expiry)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, access)
}

func (h *Handler) fileStatus(w http.ResponseWriter, r *http.Request) {
	bucketName := r.URL.Query().Get("bucket")
	key := r.URL.Query().Get("key")
	if bucketName == "" || key == "" {
		h.writeError(w, r, validationError("bucket and key are required"))
		return
	}

	p := projectFrom(r.Context())
	rec, err := h.files.Status(r.Context(), p.ID, bucketName, key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
