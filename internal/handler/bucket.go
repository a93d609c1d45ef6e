package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type bucketRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createBucket(w http.ResponseWriter, r *http.Request) {
	var req bucketRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Name == "" {
		h.writeError(w, r, validationError("bucket name is required"))
		return
	}

	p := projectFrom(r.Context())
	b, err := h.buckets.Create(r.Context(), p.ID, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) listBuckets(w http.ResponseWriter, r *http.Request) {
	p := projectFrom(r.Context())
	overviews, err := h.buckets.List(r.Context(), p.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overviews)
}

func (h *Handler) renameBucket(w http.ResponseWriter, r *http.Request) {
	var req bucketRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Name == "" {
		h.writeError(w, r, validationError("bucket name is required"))
		return
	}

	p := projectFrom(r.Context())
	b, err := h.buckets.Rename(r.Context(), p.ID, chi.URLParam(r, "name"), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) deleteBucket(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p := projectFrom(r.Context())
	if err := h.buckets.Delete(r.Context(), p.ID, name); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "name": name})
}
