package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sitetrack-service/internal/api/dto"
	"sitetrack-service/internal/services"
)

type RouteHandler struct {
	Routes *services.RouteService
}

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	routes, err := h.Routes.List(r.Context())
	if err != nil {
		writeServiceError(w, r, "list routes", err)
		return
	}
	writeJSON(w, r, http.StatusOK, routes)
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	route, err := h.Routes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "get route", err)
		return
	}
	writeJSON(w, r, http.StatusOK, route)
}

func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.RouteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "create route", err)
		return
	}

	route, err := h.Routes.Create(r.Context(), req.Route())
	if err != nil {
		writeServiceError(w, r, "create route", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, route)
}

func (h *RouteHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.RouteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "update route", err)
		return
	}

	if _, err := h.Routes.Update(r.Context(), chi.URLParam(r, "id"), req.Route()); err != nil {
		writeServiceError(w, r, "update route", err)
		return
	}
	writeJSON(w, r, http.StatusOK, okResponse)
}

// Delete deactivates the route; it stays readable by id.
func (h *RouteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Routes.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, "delete route", err)
		return
	}
	writeJSON(w, r, http.StatusOK, okResponse)
}
