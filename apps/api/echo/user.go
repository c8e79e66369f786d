package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core"
	"github.com/tmalache/chuo/core/user"
)

type authApi struct {
	svc *user.Service
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service, loginLimit echo.MiddlewareFunc) {
	api := authApi{svc: svc}

	ag := g.Group("/auth")
	ag.POST("/student/login", api.makeLogin(user.RoleStudent), loginLimit)
	ag.POST("/faculty/login", api.makeLogin(user.RoleFaculty), loginLimit)
	ag.POST("/admin/login", api.makeLogin(user.RoleAdmin), loginLimit)
	ag.POST("/password-reset", api.resetPassword, loginLimit)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset, loginLimit)
}

func (api *authApi) makeLogin(role user.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var data LoginRequest
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to LoginRequest")
		}
		if err := data.Validate(); err != nil {
			return err
		}

		acct, err := api.svc.Authenticate(ctx.Request().Context(), role, data.Email, data.Password)
		if err != nil {
			switch errors.Cause(err) {
			case user.ErrInvalidCredentials:
				return core.NewValidationError(user.ErrInvalidCredentials)
			case user.ErrNotApproved:
				return errAccountNotApproved
			}
			return errors.Wrap(err, "authenticating")
		}

		token, err := GenerateToken(GetAccountClaims(acct))
		if err != nil {
			return errors.Wrap(err, "generating token")
		}
		return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
	}
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Role, data.Email)
	if !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetAccountPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetAccountPassword")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

type studentApi struct {
	svc *user.Service
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service) {
	api := studentApi{svc: svc}

	g.POST("/students/register", api.register)

	sg := g.Group("/students", jwt)
	sg.GET("", api.query, tierMiddleware(user.TierAdmin))

	dg := sg.Group("/:id")
	dg.GET("", api.retrieve, selfOrTierMiddleware(user.TierFaculty))
	dg.PUT("", api.update, selfOrTierMiddleware(user.TierAdmin))
	dg.PUT("/approve", api.setRegistrationStatus, tierMiddleware(user.TierAdmin))
	dg.DELETE("", api.destroy, tierMiddleware(user.TierAdmin))
}

func (api *studentApi) register(ctx echo.Context) error {
	var data user.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(ctx.Request().Context(), api.svc); err != nil {
		return err
	}

	std, err := api.svc.RegisterStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(user.StudentQueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.Student{})
	}
	filter.Clean()

	students, err := api.svc.QueryStudents(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []user.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	std, err := api.svc.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	orig, err := api.svc.GetStudent(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data user.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err = data.Validate(reqCtx, orig, api.svc); err != nil {
		return err
	}

	std, err := api.svc.UpdateStudent(reqCtx, orig, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) setRegistrationStatus(ctx echo.Context) error {
	var data struct {
		Status user.RegistrationStatus `json:"status" validate:"required"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to registration status")
	}
	if err := core.Validate.Struct(data); err != nil {
		return err
	}

	std, err := api.svc.SetRegistrationStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteStudent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type facultyApi struct {
	svc *user.Service
}

func registerFacultyAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service) {
	api := facultyApi{svc: svc}

	fg := g.Group("/faculty", jwt)
	fg.POST("", api.create, tierMiddleware(user.TierAdmin))
	fg.GET("", api.query, tierMiddleware(user.TierAdmin))

	dg := fg.Group("/:id")
	dg.GET("", api.retrieve, selfOrTierMiddleware(user.TierAdmin))
	dg.PUT("", api.update, selfOrTierMiddleware(user.TierAdmin))
	dg.DELETE("", api.destroy, tierMiddleware(user.TierAdmin))
}

func (api *facultyApi) create(ctx echo.Context) error {
	var data user.NewFaculty
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFaculty")
	}
	if err := data.Validate(ctx.Request().Context(), api.svc); err != nil {
		return err
	}

	fac, err := api.svc.CreateFaculty(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating faculty")
	}
	return ctx.JSON(http.StatusCreated, fac)
}

func (api *facultyApi) query(ctx echo.Context) error {
	filter := new(user.FacultyQueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.Faculty{})
	}
	filter.Clean()

	faculty, err := api.svc.QueryFaculty(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying faculty")
	}
	if faculty == nil {
		faculty = []user.Faculty{}
	}
	return ctx.JSON(http.StatusOK, faculty)
}

func (api *facultyApi) retrieve(ctx echo.Context) error {
	fac, err := api.svc.GetFaculty(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, fac)
}

func (api *facultyApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	orig, err := api.svc.GetFaculty(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data user.UpdateFaculty
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateFaculty")
	}
	if err = data.Validate(reqCtx, orig, api.svc); err != nil {
		return err
	}

	fac, err := api.svc.UpdateFaculty(reqCtx, orig, data)
	if err != nil {
		return errors.Wrap(err, "updating faculty")
	}
	return ctx.JSON(http.StatusOK, fac)
}

func (api *facultyApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteFaculty(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
