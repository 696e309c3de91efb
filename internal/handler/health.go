package handler

import "net/http"

// HandleHealthz reports liveness. It does not touch the stores.
func HandleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
