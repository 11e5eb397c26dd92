package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/registry"
	"github.com/estagio/estagio/pkg/store"
)

type SupervisorHandler struct {
	supervisors *registry.SupervisorService
	logger      *zap.Logger
}

func NewSupervisorHandler(supervisors *registry.SupervisorService, logger *zap.Logger) *SupervisorHandler {
	return &SupervisorHandler{supervisors: supervisors, logger: logger}
}

func (h *SupervisorHandler) List(c *gin.Context) {
	filter := store.SupervisorFilter{Search: c.Query("search")}
	if raw := c.Query("empresa_id"); raw != "" {
		companyID, err := uuid.Parse(raw)
		if err != nil {
			respond(c, http.StatusOK, "", []interface{}{})
			return
		}
		filter.EmpresaID = &companyID
	}
	supervisors, err := h.supervisors.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", supervisors)
}

func (h *SupervisorHandler) Create(c *gin.Context) {
	var req registry.SupervisorInput
	if !bindJSON(c, &req) {
		return
	}
	supervisor, err := h.supervisors.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Supervisor cadastrado com sucesso.", supervisor)
}

func (h *SupervisorHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	supervisor, err := h.supervisors.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", supervisor)
}

func (h *SupervisorHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req registry.SupervisorInput
	if !bindJSON(c, &req) {
		return
	}
	supervisor, err := h.supervisors.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Supervisor atualizado com sucesso.", supervisor)
}

func (h *SupervisorHandler) Patch(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req registry.SupervisorPatch
	if !bindJSON(c, &req) {
		return
	}
	supervisor, err := h.supervisors.Patch(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Supervisor atualizado com sucesso.", supervisor)
}

func (h *SupervisorHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.supervisors.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Supervisor removido com sucesso."})
}

func (h *SupervisorHandler) ByCompany(c *gin.Context) {
	supervisors, err := h.supervisors.ByCompany(c.Request.Context(), c.Query("empresa_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", supervisors)
}

func (h *SupervisorHandler) Internships(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	internships, err := h.supervisors.Internships(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", internships)
}
