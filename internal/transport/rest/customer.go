package rest

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/inventory/internal/service"
	"github.com/abgdnv/inventory/pkg/web"
	"github.com/go-playground/validator/v10"
)

type CustomerHandler struct {
	service  service.CustomerService
	validate *validator.Validate
	logger   *slog.Logger
}

func (h *CustomerHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.FindAll(r.Context())
	if err != nil {
		respondServiceError(w, r, h.logger, err, "", "Failed to fetch customers")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

func (h *CustomerHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err,
			fmt.Sprintf("Customer with ID %d not found", id),
			fmt.Sprintf("Failed to retrieve customer with ID %d", id))
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var dto service.CustomerDto
	if !web.DecodeAndValidate(w, r, h.logger, h.validate, &dto) {
		return
	}
	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "", "Failed to create customer")
		return
	}
	h.logger.InfoContext(r.Context(), "Customer created successfully", "ID", created.ID)
	web.RespondJSON(w, h.logger, http.StatusCreated, created)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var dto service.CustomerDto
	if !web.DecodeAndValidate(w, r, h.logger, h.validate, &dto) {
		return
	}
	updated, err := h.service.Update(r.Context(), id, dto)
	if err != nil {
		respondServiceError(w, r, h.logger, err,
			fmt.Sprintf("Customer with ID %d not found", id),
			fmt.Sprintf("Failed to update customer with ID %d", id))
		return
	}
	h.logger.InfoContext(r.Context(), "Customer updated successfully", "ID", updated.ID)
	web.RespondJSON(w, h.logger, http.StatusOK, updated)
}

func (h *CustomerHandler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		respondServiceError(w, r, h.logger, err,
			fmt.Sprintf("Customer with ID %d not found", id),
			fmt.Sprintf("Failed to delete customer with ID %d", id))
		return
	}
	h.logger.InfoContext(r.Context(), "Customer deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}
