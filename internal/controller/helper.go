package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

var idCounter atomic.Uint64

func (c controller) generateTimeBasedId() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + strconv.FormatUint(idCounter.Add(1), 36)
}

type envelope map[string]any

func (c controller) writeJSON(w http.ResponseWriter, r *http.Request, status int, data envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write json", "error", err)
	}
}
