package server

import (
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nikogura/cvforge/pkg/docparse"
	"github.com/nikogura/cvforge/pkg/llm"
	"github.com/nikogura/cvforge/pkg/profile"
	"github.com/nikogura/cvforge/pkg/render"
	"github.com/pkg/errors"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// fail maps a pipeline error onto a status code.
func fail(c *gin.Context, err error) {
	var (
		aiErr       *llm.AIServiceError
		unsupported *docparse.UnsupportedFormatError
		corrupt     *docparse.CorruptFileError
		tmplErr     *render.TemplateError
	)

	switch {
	case errors.As(err, &aiErr):
		writeError(c, http.StatusBadGateway, "ai_service_"+aiErr.Kind, err.Error())
	case profile.IsCollision(err):
		writeError(c, http.StatusConflict, "version_collision", err.Error())
	case errors.As(err, &unsupported), errors.As(err, &corrupt):
		writeError(c, http.StatusBadRequest, "unreadable_document", err.Error())
	case errors.As(err, &tmplErr):
		writeError(c, http.StatusBadRequest, "template_error", err.Error())
	case errors.Is(err, fs.ErrNotExist):
		writeError(c, http.StatusNotFound, "not_found", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal", err.Error())
	}
}
