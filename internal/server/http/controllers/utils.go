package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// writeError writes {"message": message} with the given status.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResp{Message: message})
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// writeJSON writes data as a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// parseSinceID reads the since_id cursor. Absent or empty means 0.
func parseSinceID(r *http.Request) (uint64, bool) {
	v := r.URL.Query().Get("since_id")
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
