package settlement

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/velopay/payops/pkg/middleware"
	"github.com/velopay/payops/pkg/response"
)

// Handler handles HTTP requests for settlement operations
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for settlement endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

// isClientError maps business-rule violations to a 400
func isClientError(err error) bool {
	for _, e := range []error{
		ErrInvalidMethod, ErrInvalidAmount, ErrSameStatus, ErrRejectedToSuccess,
		ErrInvalidStatusChange, ErrNoTransition, ErrReferenceRequired,
		ErrReferenceExists, ErrUTRUsed, ErrUTRNotConsumed,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// isNotFound maps missing-entity failures to a 404
func isNotFound(err error) bool {
	for _, e := range []error{ErrSettlementNotFound, ErrUTRNotFound, ErrVendorNotFound, ErrBeneficiaryNotFound} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case isClientError(err):
		response.BadRequest(w, err.Error())
	case isNotFound(err):
		response.NotFound(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

// Create handles POST /settlements
// @Summary      Create a settlement
// @Description  Record a money movement; internal transfers are reconciled against a bank confirmation and auto-approved
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        request body CreateSettlementRequest true "Settlement creation request"
// @Success      201 {object} response.APIResponse{data=SettlementResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /settlements [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		response.BadRequest(w, "Missing actor identity")
		return
	}

	var req CreateSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	settlement, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		writeServiceError(w, err, "Failed to create settlement")
		return
	}

	response.JSON(w, http.StatusCreated, settlement.ToResponse())
}

// GetByID handles GET /settlements/{id}
// @Summary      Get settlement by ID
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID"
// @Success      200 {object} response.APIResponse{data=SettlementResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		response.BadRequest(w, "Missing actor identity")
		return
	}

	settlement, err := h.service.GetByID(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Failed to get settlement")
		return
	}

	response.JSON(w, http.StatusOK, settlement.ToResponse())
}

// List handles GET /settlements
// @Summary      List settlements for a user
// @Tags         settlements
// @Produce      json
// @Param        user_id query string true "Owner user ID"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]SettlementResponse}
// @Router       /settlements [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		response.BadRequest(w, "Missing actor identity")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = actor.UserID
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	settlements, total, err := h.service.ListByUser(r.Context(), actor, userID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list settlements")
		return
	}

	settlementResponses := make([]*SettlementResponse, len(settlements))
	for i, s := range settlements {
		settlementResponses[i] = s.ToResponse()
	}

	totalPages := (total + perPage - 1) / perPage
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}

	response.JSONWithMeta(w, http.StatusOK, settlementResponses, meta)
}

// Update handles PATCH /settlements/{id}
// @Summary      Approve, reject or reverse a settlement
// @Description  A reference id approves, a rejected reason rejects, and status INITIATED on a decided settlement reverses it
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        id path string true "Settlement ID"
// @Param        request body UpdateSettlementRequest true "Settlement transition request"
// @Success      200 {object} response.APIResponse{data=SettlementResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		response.BadRequest(w, "Missing actor identity")
		return
	}

	var req UpdateSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	settlement, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, err, "Failed to update settlement")
		return
	}

	response.JSON(w, http.StatusOK, settlement.ToResponse())
}

// Delete handles DELETE /settlements/{id}
// @Summary      Soft-delete a settlement
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID"
// @Success      200 {object} response.APIResponse{data=SettlementResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		response.BadRequest(w, "Missing actor identity")
		return
	}

	settlement, err := h.service.Delete(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Failed to delete settlement")
		return
	}

	response.JSON(w, http.StatusOK, settlement.ToResponse())
}
