package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core"
	"github.com/tmalache/chuo/core/attendance"
	"github.com/tmalache/chuo/core/user"
)

type attendanceApi struct {
	svc *attendance.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service) {
	api := attendanceApi{svc: svc}
	faculty := tierMiddleware(user.TierFaculty)

	g.POST("/courses/:id/attendance", api.mark, jwt, faculty)
	g.GET("/courses/:id/attendance", api.queryByCourse, jwt, faculty)
	g.PUT("/attendance/:id", api.correct, jwt, faculty)
	g.DELETE("/attendance/:id", api.destroy, jwt, tierMiddleware(user.TierAdmin))

	g.GET("/attendance/summary/student/:studentId/course/:courseId", api.summary,
		jwt, selfOrTierMiddleware(user.TierFaculty, "studentId"))
	g.GET("/students/:id/attendance", api.studentRecords, jwt, selfOrTierMiddleware(user.TierFaculty))
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data attendance.MarkAttendance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkAttendance")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	rec, err := api.svc.Mark(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *attendanceApi) queryByCourse(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var dr DateRangeQuery
	if err = ctx.Bind(&dr); err != nil {
		return errors.Wrap(err, "binding to DateRangeQuery")
	}
	from, to, err := dr.Parse()
	if err != nil {
		return err
	}

	records, err := api.svc.ListByCourse(ctx.Request().Context(), ctx.Param("id"), claims.Subject, from, to)
	if err != nil {
		return err
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) correct(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data struct {
		Status attendance.Status `json:"status" validate:"required"`
	}
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to attendance correction")
	}
	if err = core.Validate.Struct(data); err != nil {
		return err
	}

	rec, err := api.svc.Correct(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data.Status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	sum, err := api.svc.Summarize(ctx.Request().Context(), ctx.Param("studentId"), ctx.Param("courseId"))
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *attendanceApi) studentRecords(ctx echo.Context) error {
	records, err := api.svc.ListForStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying student attendance")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}
