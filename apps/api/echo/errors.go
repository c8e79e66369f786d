package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core"
	"github.com/tmalache/chuo/core/announcement"
	"github.com/tmalache/chuo/core/asset"
	"github.com/tmalache/chuo/core/attendance"
	"github.com/tmalache/chuo/core/course"
	"github.com/tmalache/chuo/core/fee"
	"github.com/tmalache/chuo/core/grade"
	"github.com/tmalache/chuo/core/user"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAccountNotApproved = echo.NewHTTPError(http.StatusForbidden, user.ErrNotApproved.Error())
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")
	errRateLimited        = echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
)

// sentinelStatus maps domain sentinels to their HTTP status: failed
// lookups are 404s, ownership failures are 403s.
func sentinelStatus(err error) (int, bool) {
	switch err {
	case user.ErrNotFound,
		course.ErrNotFound, course.ErrDeptNotFound, course.ErrMaterialNotFound, course.ErrSlotNotFound,
		grade.ErrNotFound,
		attendance.ErrNotFound,
		fee.ErrNotFound,
		announcement.ErrNotFound, announcement.ErrNotifNotFound,
		asset.ErrResourceNotFound, asset.ErrItemNotFound:
		return http.StatusNotFound, true
	case course.ErrNotOwner, grade.ErrNotOwner, attendance.ErrNotOwner, announcement.ErrNotRecipient:
		return http.StatusForbidden, true
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, debug bool, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if status, ok := sentinelStatus(cause); ok {
				code = status
				message = cause.Error()
			} else { // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var acct user.Account
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					acct.ID = claims.Subject
					acct.Name = claims.Name
					acct.Email = claims.Email
					acct.Role = claims.Role
				}
				logger.Error(msg, errors.Wrap(err, msg), acct)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
