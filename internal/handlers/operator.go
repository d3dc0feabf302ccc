package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"WarehouseApp/internal/config"
	"WarehouseApp/internal/middleware"
	"WarehouseApp/internal/service"
)

// OperatorHandler: вход оператора по коду доступа.
type OperatorHandler struct {
	Operators *service.OperatorService
	Logger    *zap.SugaredLogger
	Config    *config.Config
}

func NewOperatorHandler(operators *service.OperatorService, logger *zap.SugaredLogger, cfg *config.Config) *OperatorHandler {
	return &OperatorHandler{Operators: operators, Logger: logger, Config: cfg}
}

type loginRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Login проверяет код и ставит cookie с JWT
func (h *OperatorHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Login: invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	name, err := h.Operators.Login(req.Name, req.Code)
	if errors.Is(err, service.ErrBadCredentials) {
		h.Logger.Warnw("Login: bad credentials", "name", req.Name)
		http.Error(w, "invalid name or code", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.Logger.Errorw("Login: service error", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := middleware.SetLoginCookie(w, name, h.Config.AuthSecret); err != nil {
		h.Logger.Errorw("Login: failed to sign token", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.Logger.Infow("operator logged in", "name", name)
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}
