package httpapi

import (
	"encoding/json"
	"net/http"
)

// ProblemDetail is the wire error envelope: {"detail": {"code", "message"}}.
type ProblemDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type problemEnvelope struct {
	Detail ProblemDetail `json:"detail"`
}

func writeProblem(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problemEnvelope{Detail: ProblemDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
