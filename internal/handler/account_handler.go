package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/reservasegura/monitor/internal/crypto"
	"github.com/reservasegura/monitor/internal/database"
	"github.com/reservasegura/monitor/internal/model"
	"github.com/reservasegura/monitor/internal/rules"
)

// AccountHandler manages linked airline accounts. The password never leaves
// this handler in cleartext: it is encrypted before anything is persisted.
type AccountHandler struct {
	accounts  *database.AccountRepository
	encryptor *crypto.Encryptor
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts *database.AccountRepository, encryptor *crypto.Encryptor) *AccountHandler {
	return &AccountHandler{accounts: accounts, encryptor: encryptor}
}

type linkAccountRequest struct {
	Airline  string `json:"airline"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Link handles POST /api/v1/accounts
func (h *AccountHandler) Link(w http.ResponseWriter, r *http.Request) {
	var req linkAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	airlineRules, ok := rules.Lookup(req.Airline)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported airline: "+req.Airline)
		return
	}

	encrypted, err := h.encryptor.Encrypt(req.Password)
	if err != nil {
		slog.Error("Failed to encrypt account password", "airline", airlineRules.Code, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store account")
		return
	}

	account := &model.AirlineAccount{
		Airline:           airlineRules.Code,
		Email:             req.Email,
		EncryptedPassword: encrypted,
		UpdatedAt:         time.Now().UTC(),
	}
	if err := h.accounts.Upsert(r.Context(), account); err != nil {
		slog.Error("Failed to store account", "airline", airlineRules.Code, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store account")
		return
	}

	slog.Info("Airline account linked", "airline", airlineRules.Code, "email", req.Email)
	writeJSON(w, http.StatusCreated, map[string]string{
		"airline": airlineRules.Code,
		"email":   req.Email,
	})
}
