package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/linemk/nirvana-shop/internal/identity"
	"github.com/linemk/nirvana-shop/internal/lib/api/response"
	"github.com/linemk/nirvana-shop/internal/service"
)

var validate = newValidator()

// newValidator возвращает валидатор, который называет поля по json-тегам,
// чтобы сообщения совпадали с тем, что прислал клиент
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage превращает первую ошибку валидатора в текст для клиента
func validationMessage(err error) string {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) || len(vErrs) == 0 {
		return "validation error"
	}
	fe := vErrs[0]
	if fe.Tag() == "required" {
		return "Missing " + fe.Field()
	}
	return fmt.Sprintf("Invalid %s", fe.Field())
}

// decodeAndValidate читает JSON тела и проверяет теги validate.
// При ошибке ответ уже записан.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		logger.Warn("invalid request: decoding error", slog.Any("error", err))
		response.Error(w, http.StatusBadRequest, "invalid request")
		return false
	}
	if err := validate.Struct(req); err != nil {
		logger.Warn("invalid request: validation error", slog.Any("error", err))
		response.Error(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// callerID достаёт id пользователя, положенный RequireUser
func callerID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		logger.Error("caller not found in context")
		response.Error(w, http.StatusUnauthorized, "Unauthorized: not signed in")
		return "", false
	}
	return caller.ID, true
}

func pathID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.Warn("invalid id in path", slog.String("id", raw))
		response.Error(w, http.StatusBadRequest, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// renderServiceError сопоставляет ошибки сервисного слоя со статусами ответа
func renderServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, notFoundMsg string) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		response.Error(w, http.StatusBadRequest, vErr.Msg)
	case errors.Is(err, service.ErrNotFound):
		response.Error(w, http.StatusNotFound, notFoundMsg)
	default:
		logger.Error("request failed", slog.Any("error", err))
		response.InternalError(w, r, err)
	}
}
