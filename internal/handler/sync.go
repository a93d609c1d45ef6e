package handler

import "net/http"

// syncProject runs reconciliation for the authenticated project
// synchronously and reports the per-bucket outcome. The periodic sweep
// covers all projects; this endpoint exists for on-demand repair.
func (h *Handler) syncProject(w http.ResponseWriter, r *http.Request) {
	p := projectFrom(r.Context())
	result, err := h.engine.SyncProject(r.Context(), p.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
