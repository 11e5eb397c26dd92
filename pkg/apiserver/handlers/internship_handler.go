package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/internship"
)

type InternshipHandler struct {
	internships *internship.Service
	logger      *zap.Logger
}

func NewInternshipHandler(internships *internship.Service, logger *zap.Logger) *InternshipHandler {
	return &InternshipHandler{internships: internships, logger: logger}
}

type decisionRequest struct {
	Aprovar     bool   `json:"aprovar"`
	Observacoes string `json:"observacoes"`
}

type parecerRequest struct {
	Parecer string `json:"parecer"`
}

func (h *InternshipHandler) Create(c *gin.Context) {
	var req internship.CreateInput
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.internships.Create(c.Request.Context(), identity(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Estágio cadastrado com sucesso.", created)
}

func (h *InternshipHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	found, err := h.internships.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", found)
}

func (h *InternshipHandler) Available(c *gin.Context) {
	available, err := h.internships.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", available)
}

func (h *InternshipHandler) Request(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	requested, err := h.internships.Request(c.Request.Context(), identity(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Solicitação enviada.", requested)
}

func (h *InternshipHandler) Pending(c *gin.Context) {
	pending, err := h.internships.Pending(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", pending)
}

func (h *InternshipHandler) Decide(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req decisionRequest
	if !bindJSON(c, &req) {
		return
	}
	decided, err := h.internships.Decide(c.Request.Context(), identity(c), id, req.Aprovar, req.Observacoes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	message := "Solicitação reprovada."
	if req.Aprovar {
		message = "Solicitação aprovada."
	}
	respond(c, http.StatusOK, message, decided)
}

func (h *InternshipHandler) Supervised(c *gin.Context) {
	supervised, err := h.internships.Supervised(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", supervised)
}

func (h *InternshipHandler) Start(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	started, err := h.internships.Start(c.Request.Context(), identity(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Estágio iniciado.", started)
}

func (h *InternshipHandler) Close(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	closed, err := h.internships.Close(c.Request.Context(), identity(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Estágio encerrado.", closed)
}

func (h *InternshipHandler) Parecer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req parecerRequest
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.internships.SetParecer(c.Request.Context(), identity(c), id, req.Parecer)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Parecer registrado.", updated)
}

func (h *InternshipHandler) LogHours(c *gin.Context) {
	var req internship.HoursInput
	if !bindJSON(c, &req) {
		return
	}
	entry, err := h.internships.LogHours(c.Request.Context(), identity(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Horas registradas.", entry)
}

func (h *InternshipHandler) ListHours(c *gin.Context) {
	entries, err := h.internships.ListHours(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", entries)
}

func (h *InternshipHandler) TotalHours(c *gin.Context) {
	total, err := h.internships.TotalHours(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"total_horas": total})
}
