package handler

import (
	"net/http"

	"github.com/craftfolio/portfolio-server-go/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	httputil.WriteSuccess(w, status, message, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}
