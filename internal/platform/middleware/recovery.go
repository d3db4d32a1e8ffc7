package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Recovery turns a panicking handler into a 500 whose body carries the
// request id, so a caller can quote it when reporting the failure. The panic
// and its stack are logged under the same id. http.ErrAbortHandler is
// re-raised for net/http to handle.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if e, ok := r.(error); ok && errors.Is(e, http.ErrAbortHandler) {
					panic(r)
				}

				rid, _ := c.Get("request_id").(string)
				panicErr, ok := r.(error)
				if !ok {
					panicErr = fmt.Errorf("%v", r)
				}

				logger.Error().
					Err(panicErr).
					Str("request_id", rid).
					Str("method", c.Request().Method).
					Str("path", c.Request().URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				body := map[string]string{"message": "internal server error"}
				if rid != "" {
					body["request_id"] = rid
				}
				err = echo.NewHTTPError(http.StatusInternalServerError, body).SetInternal(panicErr)
			}()
			return next(c)
		}
	}
}
