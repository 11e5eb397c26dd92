package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/registry"
	"github.com/estagio/estagio/pkg/store"
)

type CompanyHandler struct {
	companies *registry.CompanyService
	logger    *zap.Logger
}

func NewCompanyHandler(companies *registry.CompanyService, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{companies: companies, logger: logger}
}

func (h *CompanyHandler) List(c *gin.Context) {
	companies, err := h.companies.List(c.Request.Context(), store.CompanyFilter{
		Search: c.Query("search"),
		Estado: c.Query("estado"),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", companies)
}

func (h *CompanyHandler) Create(c *gin.Context) {
	var req registry.CompanyInput
	if !bindJSON(c, &req) {
		return
	}
	company, err := h.companies.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Empresa cadastrada com sucesso.", company)
}

func (h *CompanyHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	company, err := h.companies.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", company)
}

func (h *CompanyHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req registry.CompanyInput
	if !bindJSON(c, &req) {
		return
	}
	company, err := h.companies.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Empresa atualizada com sucesso.", company)
}

func (h *CompanyHandler) Patch(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req registry.CompanyPatch
	if !bindJSON(c, &req) {
		return
	}
	company, err := h.companies.Patch(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Empresa atualizada com sucesso.", company)
}

func (h *CompanyHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.companies.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Empresa removida com sucesso."})
}

func (h *CompanyHandler) Supervisors(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	supervisors, err := h.companies.Supervisors(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", supervisors)
}

func (h *CompanyHandler) Stats(c *gin.Context) {
	stats, err := h.companies.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", stats)
}
