package response

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
)

// Response: общая часть конверта. Полезная нагрузка добавляется встраиванием:
//
//	type productsResponse struct {
//		response.Response
//		Products []*models.Product `json:"products"`
//	}
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

func OK() Response {
	return Response{Success: true}
}

func Fail(msg string) Response {
	return Response{Success: false, Error: msg}
}

// JSON пишет тело с заданным статусом
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error отдаёт {success:false, error:msg}
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Fail(msg))
}

type stackKey struct{}

// WithStackTraces включает вывод стека в ответах 500 для всех запросов под этим middleware.
// В проде не подключается.
func WithStackTraces(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), stackKey{}, true)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func stackTracesEnabled(ctx context.Context) bool {
	on, _ := ctx.Value(stackKey{}).(bool)
	return on
}

// InternalError отдаёт 500 с текстом ошибки. Стек (%+v от pkg/errors) прикладывается,
// только если запрос прошёл через WithStackTraces.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	resp := Fail(err.Error())
	if stackTracesEnabled(r.Context()) {
		resp.Stack = fmt.Sprintf("%+v", err)
	}
	JSON(w, http.StatusInternalServerError, resp)
}

// Recoverer перехватывает панику обработчика и отдаёт 500 в общем конверте.
// Стек прикладывается так же, как в InternalError.
func Recoverer(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// оборванное соединение: ответ писать некому
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				stack := string(debug.Stack())
				log.Error("panic recovered",
					slog.String("method", r.Method),
					slog.String("url", r.URL.Path),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.Any("panic", rec),
					slog.String("stack", stack),
				)

				resp := Fail(fmt.Sprintf("internal error: %v", rec))
				if stackTracesEnabled(r.Context()) {
					resp.Stack = stack
				}
				JSON(w, http.StatusInternalServerError, resp)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
