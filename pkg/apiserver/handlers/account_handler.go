package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/accounts"
)

type AccountHandler struct {
	accounts *accounts.Service
	logger   *zap.Logger
}

func NewAccountHandler(accounts *accounts.Service, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, accounts.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "E-mail ou senha inválidos."})
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", result)
}

func (h *AccountHandler) Me(c *gin.Context) {
	account, err := h.accounts.Me(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", account)
}

func (h *AccountHandler) CreateInstitution(c *gin.Context) {
	var req accounts.InstitutionInput
	if !bindJSON(c, &req) {
		return
	}
	institution, err := h.accounts.CreateInstitution(c.Request.Context(), identity(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Instituição cadastrada com sucesso.", institution)
}

func (h *AccountHandler) RegisterStudent(c *gin.Context) {
	var req accounts.StudentInput
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.accounts.RegisterStudent(c.Request.Context(), identity(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Estudante cadastrado com sucesso.", student)
}

func (h *AccountHandler) RegisterCoordinator(c *gin.Context) {
	var req accounts.CoordinatorInput
	if !bindJSON(c, &req) {
		return
	}
	coordinator, err := h.accounts.RegisterCoordinator(c.Request.Context(), identity(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Coordenador cadastrado com sucesso.", coordinator)
}
