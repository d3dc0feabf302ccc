package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"WarehouseApp/internal/model"
	"WarehouseApp/internal/service"
)

// ContainerHandler: операции над контейнерами поверх координатора.
type ContainerHandler struct {
	Coordinator *service.Coordinator
	Logger      *zap.SugaredLogger
}

func NewContainerHandler(c *service.Coordinator, logger *zap.SugaredLogger) *ContainerHandler {
	return &ContainerHandler{Coordinator: c, Logger: logger}
}

type createRequest struct {
	ContainerNumber   string               `json:"containerNumber"`
	Type              string               `json:"type"`
	DoorNumber        string               `json:"doorNumber"`
	PieceCounts       []model.PieceCount   `json:"pieceCounts,omitempty"`
	MaterialsSupplied []model.MaterialType `json:"materialsSupplied,omitempty"`
}

type statusResponse struct {
	IsLoading bool   `json:"isLoading"`
	IsOffline bool   `json:"isOffline"`
	Count     int    `json:"count"`
	CurrentID string `json:"currentId,omitempty"`
}

type currentRequest struct {
	ID string `json:"id"`
}

// Status состояние координатора
func (h *ContainerHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		IsLoading: h.Coordinator.IsLoading(),
		IsOffline: h.Coordinator.IsOffline(),
		Count:     len(h.Coordinator.Containers()),
	}
	if cur, ok := h.Coordinator.Current(); ok {
		resp.CurrentID = cur.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ContainerHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Coordinator.Containers())
}

func (h *ContainerHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Coordinator.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Get", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Create новый контейнер
func (h *ContainerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Create: invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	typ := model.ContainerImport
	if req.Type != "" {
		t, ok := model.LookupContainerType(req.Type)
		if !ok {
			http.Error(w, "unknown container type", http.StatusBadRequest)
			return
		}
		typ = t
	}

	c := model.New("", req.ContainerNumber, typ, req.DoorNumber, h.Coordinator.Now())
	if req.PieceCounts != nil {
		c.PieceCounts = req.PieceCounts
	}
	c.SetMaterials(req.MaterialsSupplied)

	created, err := h.Coordinator.Add(r.Context(), c)
	if err != nil {
		h.fail(w, "Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update полная замена записи; id берётся из пути
func (h *ContainerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var c model.Container
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		h.Logger.Warnw("Update: invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	c.ID = chi.URLParam(r, "id")

	updated, err := h.Coordinator.Update(r.Context(), c)
	if err != nil {
		h.fail(w, "Update", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ContainerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Coordinator.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Complete отчёт, загрузка и финализация
func (h *ContainerHandler) Complete(w http.ResponseWriter, r *http.Request) {
	c, err := h.Coordinator.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Complete", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ContainerHandler) Current(w http.ResponseWriter, r *http.Request) {
	c, ok := h.Coordinator.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ContainerHandler) SetCurrent(w http.ResponseWriter, r *http.Request) {
	var req currentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.Coordinator.SetCurrent(req.ID); err != nil {
		h.fail(w, "SetCurrent", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ContainerHandler) Sync(w http.ResponseWriter, r *http.Request) {
	res, err := h.Coordinator.SyncAll(r.Context())
	if err != nil {
		h.fail(w, "Sync", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ContainerHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	added, err := h.Coordinator.Refresh(r.Context())
	if err != nil {
		h.fail(w, "Refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

// fail переводит ошибку координатора в HTTP-статус.
func (h *ContainerHandler) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Errorw(op+": service error", "error", err)
	} else {
		h.Logger.Warnw(op+": rejected", "error", err)
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrDuplicateNumber), errors.Is(err, service.ErrAlreadyCompleted):
		return http.StatusConflict
	case errors.Is(err, service.ErrNoRemote), errors.Is(err, service.ErrNoUploader):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
