package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/storage/inmem"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "operator not authenticated")
	errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// envelope is the shape of every response body of the gateway.
type envelope map[string]interface{}

func failure(msg string) envelope {
	return envelope{"success": false, "message": msg}
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that writes every error as {success: false, message}.
func newAppHTTPErrorHandler(logger core.Logger, auth *authenticator) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = "missing or malformed jwt"
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if m, ok := origErr.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		case *core.ValidationError:
			code = http.StatusBadRequest
			message = origErr.Error()
		default:
			if errors.Cause(err) == inmemdb.ErrNotFound {
				code = http.StatusNotFound
				message = errHttpNotFound.Message.(string)
				break
			}
			// any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(http.StatusInternalServerError)

			args := []interface{}{errors.Wrap(err, message)}
			if claims, cErr := auth.contextClaims(ctx); cErr == nil {
				args = append(args, claims.Operator())
			}
			logger.Error(message, args...)
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, failure(message))
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
