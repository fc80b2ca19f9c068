package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/teamboard-dev/teamboard/internal/apperr"
)

func respondError(ctx *gin.Context, logger *slog.Logger, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("method", ctx.Request.Method),
			slog.String("path", ctx.FullPath()),
			slog.String("error", err.Error()),
		)
		_ = ctx.Error(err)
	}
	ctx.JSON(status, gin.H{"error": apperr.Message(err)})
}

// bindJSON decodes the body into dst and reports problems as validation
// errors naming the missing fields.
func bindJSON(ctx *gin.Context, dst any) error {
	err := ctx.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return apperr.Validation("Missing required fields: %s", strings.Join(fields, ", "))
	}

	if errors.Is(err, io.EOF) {
		return apperr.Validation("Request body is required")
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return apperr.Validation("Malformed JSON body")
	case errors.As(err, &typeErr):
		return apperr.Validation("Invalid value for %s", typeErr.Field)
	}
	return apperr.Validation("%s", err.Error())
}

// JSONFieldName makes validation errors report json field names.
func JSONFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}
