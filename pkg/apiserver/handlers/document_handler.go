package handlers

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/workflow"
)

// uploadField is the multipart field carrying the document file.
const uploadField = "arquivo"

type DocumentHandler struct {
	documents *workflow.Service
	logger    *zap.Logger
}

func NewDocumentHandler(documents *workflow.Service, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{documents: documents, logger: logger}
}

type reviewRequest struct {
	Observacoes string `json:"observacoes"`
	PrazoLimite string `json:"prazo_limite"`
}

func (h *DocumentHandler) Submit(c *gin.Context) {
	file, header, ok := h.formFile(c)
	if !ok {
		return
	}
	defer file.Close()

	doc, err := h.documents.Submit(c.Request.Context(), identity(c), workflow.SubmitInput{
		Tipo:        c.PostForm("tipo"),
		NomeArquivo: header.Filename,
		Content:     file,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Documento enviado com sucesso.", doc)
}

func (h *DocumentHandler) Resubmit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	file, header, ok := h.formFile(c)
	if !ok {
		return
	}
	defer file.Close()

	doc, err := h.documents.Resubmit(c.Request.Context(), identity(c), id, workflow.ResubmitInput{
		NomeArquivo: header.Filename,
		Content:     file,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Nova versão enviada com sucesso.", doc)
}

func (h *DocumentHandler) Track(c *gin.Context) {
	docs, err := h.documents.Track(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", docs)
}

func (h *DocumentHandler) Approve(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	doc, err := h.documents.Approve(c.Request.Context(), identity(c), id, req.Observacoes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Documento aprovado.", doc)
}

func (h *DocumentHandler) Reject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	doc, err := h.documents.Reject(c.Request.Context(), identity(c), id, req.Observacoes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Documento reprovado.", doc)
}

func (h *DocumentHandler) RequestChanges(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	doc, err := h.documents.RequestChanges(c.Request.Context(), identity(c), id, req.PrazoLimite, req.Observacoes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Ajustes solicitados.", doc)
}

func (h *DocumentHandler) Finalize(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	doc, err := h.documents.Finalize(c.Request.Context(), identity(c), id, req.Observacoes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Documento finalizado.", doc)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := h.documents.Get(c.Request.Context(), identity(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", detail)
}

func (h *DocumentHandler) History(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	versions, err := h.documents.History(c.Request.Context(), identity(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", versions)
}

func (h *DocumentHandler) Download(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	doc, content, err := h.documents.File(c.Request.Context(), identity(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer content.Close()

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.NomeArquivo}))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, content); err != nil {
		h.logger.Warn("document download interrupted", zap.Error(err), zap.String("document_id", doc.ID.String()))
	}
}

func (h *DocumentHandler) formFile(c *gin.Context) (multipart.File, *multipart.FileHeader, bool) {
	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		respondError(c, h.logger, apperr.Validation(uploadField, "Selecione um arquivo."))
		return nil, nil, false
	}
	return file, header, true
}

// bindOptionalJSON accepts an empty body as the zero value.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, dst)
}
