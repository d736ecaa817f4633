package api

import (
	"encoding/json"
	"net/http"
)

// problemBase prefixes the type URIs in problem responses.
const problemBase = "https://evacnav.dev/problems/"

// Problem is an RFC7807 problem details body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:     problemType(status),
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

func problemType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return problemBase + "invalid-request"
	case http.StatusNotFound:
		return problemBase + "not-found"
	case http.StatusServiceUnavailable:
		return problemBase + "not-ready"
	default:
		return "about:blank"
	}
}
