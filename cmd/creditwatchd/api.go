package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"creditwatch-backend/services/credentials"
	"creditwatch-backend/services/healthcheck"
	"creditwatch-backend/services/importer"
	"creditwatch-backend/services/registry"
	"creditwatch-backend/services/scorehistory"
)

// api is the trigger surface the CRM calls. Imports run synchronously
// inside the request: the caller wants the outcome, and a run is
// bounded by the importer's overall timeout anyway.
type api struct {
	importer    importer.Service
	credentials credentials.Service
	history     scorehistory.Service
	registry    registry.Registry
	health      *healthcheck.Service
}

func (a api) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /import", a.handleImport)
	mux.HandleFunc("POST /link", a.handleLink)
	mux.HandleFunc("GET /providers", a.handleProviders)
	mux.HandleFunc("GET /clients", a.handleClients)
	mux.HandleFunc("GET /history/{client_id}", a.handleHistory)
	mux.HandleFunc("GET /healthz", a.handleHealthz)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Warn("failed to encode response", "err", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

type importRequest struct {
	ClientID string `json:"client_id"`
	Provider string `json:"provider"`
}

func (a api) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}
	if req.ClientID == "" || req.Provider == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "client_id and provider are required"})
		return
	}

	result := a.importer.Run(r.Context(), req.ClientID, req.Provider)

	status := http.StatusOK
	switch result.Category {
	case importer.CategoryUnknownProvider, importer.CategoryNotLinked:
		status = http.StatusNotFound
	}
	writeJSON(w, status, result)
}

type linkRequest struct {
	ClientID string `json:"client_id"`
	Provider string `json:"provider"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSNLast4 string `json:"ssn_last4,omitempty"`
}

func (a api) handleLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}
	if req.ClientID == "" || req.Provider == "" || req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error: "client_id, provider, username and password are required",
		})
		return
	}
	_, err = a.registry.Lookup(req.Provider)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}

	err = a.credentials.Link(r.Context(), credentials.LinkRequest{
		ClientID: req.ClientID,
		Provider: req.Provider,
		Username: req.Username,
		Password: req.Password,
		SSNLast4: req.SSNLast4,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "linked"})
}

type providerInfo struct {
	Provider string                      `json:"provider"`
	Flow     registry.Flow               `json:"flow"`
	Health   *healthcheck.ProviderStatus `json:"health,omitempty"`
}

func (a api) handleProviders(w http.ResponseWriter, r *http.Request) {
	healthByProvider := map[string]healthcheck.ProviderStatus{}
	for _, status := range a.health.Snapshot() {
		healthByProvider[status.Provider] = status
	}

	out := []providerInfo{}
	for _, name := range a.registry.Providers() {
		cfg, err := a.registry.Lookup(name)
		if err != nil {
			continue
		}
		info := providerInfo{Provider: name, Flow: cfg.Flow}
		if status, ok := healthByProvider[name]; ok {
			info.Health = &status
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a api) handleClients(w http.ResponseWriter, r *http.Request) {
	links, err := a.credentials.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (a api) handleHistory(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("client_id")
	history, err := a.history.Pull(r.Context(), clientID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (a api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
