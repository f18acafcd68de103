package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/awmpietro/golang-bayes-inference-case/internal/app"
	"github.com/awmpietro/golang-bayes-inference-case/internal/transport/querydto"
)

const maxBodyBytes = 4 << 20

type Handler struct {
	svc app.QueryService
}

func NewHandler(svc app.QueryService) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the query routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/query", h.Query)
	mux.HandleFunc("/joint", h.Joint)
	mux.HandleFunc("/healthz", h.Healthz)
}

func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var in querydto.QueryRequest
	if !decode(w, r, &in) {
		return
	}

	res, err := h.svc.Query(in.ToApp())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, querydto.QueryErrorBody(err, res))
		return
	}
	writeJSON(w, http.StatusOK, querydto.NewQueryResponse(res))
}

func (h *Handler) Joint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var in querydto.JointRequest
	if !decode(w, r, &in) {
		return
	}

	p, info, err := h.svc.Joint(in.ToApp())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, querydto.ErrorBody("joint failed", err, nil, info))
		return
	}
	writeJSON(w, http.StatusOK, querydto.JointResponse{Probability: p, Network: info})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads and validates a JSON body, writing the 400 response itself
// when it fails.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, querydto.ErrorBody("invalid json", err, nil, nil))
		return false
	}
	if err := querydto.Validate(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, querydto.ErrorBody("invalid request", err, nil, nil))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
