package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/access"
	"github.com/estagio/estagio/pkg/apiserver/middleware"
	"github.com/estagio/estagio/pkg/apperr"
)

const (
	msgInvalidData = "Dados inválidos."
	msgInternal    = "Erro interno do servidor."
)

func parseLimit(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Registro não encontrado."})
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": msgInvalidData,
			"errors":  gin.H{"": "Corpo da requisição inválido."},
		})
		return false
	}
	return true
}

func identity(c *gin.Context) *access.Identity {
	return middleware.Identity(c)
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"data": data}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

// respondError maps service errors onto status codes. Anything that is not
// one of the apperr kinds is logged and hidden behind a generic 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var validation *apperr.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidData, "errors": validation.Fields})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusBadRequest, gin.H{"message": apperr.Message(err)})
	case errors.Is(err, apperr.ErrPermission):
		c.JSON(http.StatusForbidden, gin.H{"message": apperr.Message(err)})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Registro não encontrado."})
	default:
		logger.Error("request failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
		)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
	}
}
