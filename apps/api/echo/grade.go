package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core/grade"
	"github.com/tmalache/chuo/core/user"
	pdfsvc "github.com/tmalache/chuo/services/pdf"
)

type gradeApi struct {
	svc     *grade.Service
	userSvc *user.Service
	pdf     *pdfsvc.Service
}

func registerGradeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *grade.Service, userSvc *user.Service, pdf *pdfsvc.Service) {
	api := gradeApi{svc: svc, userSvc: userSvc, pdf: pdf}
	faculty := tierMiddleware(user.TierFaculty)
	selfOrFaculty := selfOrTierMiddleware(user.TierFaculty)

	g.POST("/courses/:id/grades", api.record, jwt, faculty)
	g.GET("/courses/:id/grades", api.queryByCourse, jwt, faculty)

	gg := g.Group("/grades", jwt, faculty)
	gg.PUT("/:id", api.update)
	gg.POST("/:id/publish", api.publish)
	gg.POST("/:id/finalize", api.finalize)
	gg.DELETE("/:id", api.destroy)

	g.GET("/students/:id/grades", api.studentGrades, jwt, selfOrFaculty)
	g.GET("/students/:id/result", api.studentResult, jwt, selfOrFaculty)
	g.GET("/students/:id/result/pdf", api.studentResultPDF, jwt, selfOrFaculty)
	g.GET("/students/:id/gpa", api.studentGPA, jwt, selfOrFaculty)
}

func (api *gradeApi) record(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data grade.NewGrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	grd, err := api.svc.Record(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, grd)
}

func (api *gradeApi) queryByCourse(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	grades, err := api.svc.ListByCourse(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data grade.UpdateGrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGrade")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	grd, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grd)
}

func (api *gradeApi) publish(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	grd, err := api.svc.Publish(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grd)
}

func (api *gradeApi) finalize(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	grd, err := api.svc.Finalize(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grd)
}

func (api *gradeApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err = api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), claims.Subject); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradeApi) studentGrades(ctx echo.Context) error {
	q := bindYearSemester(ctx)
	grades, err := api.svc.ListForStudent(ctx.Request().Context(), ctx.Param("id"), q.Year, q.Semester)
	if err != nil {
		return errors.Wrap(err, "querying student grades")
	}
	if grades == nil {
		grades = []grade.GradeView{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) studentResult(ctx echo.Context) error {
	q := bindYearSemester(ctx)
	res, err := api.svc.Result(ctx.Request().Context(), ctx.Param("id"), q.Year, q.Semester)
	if err != nil {
		return errors.Wrap(err, "computing result")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *gradeApi) studentResultPDF(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	std, err := api.userSvc.GetStudent(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}

	q := bindYearSemester(ctx)
	res, err := api.svc.Result(reqCtx, std.ID, q.Year, q.Semester)
	if err != nil {
		return errors.Wrap(err, "computing result")
	}

	doc, err := api.pdf.GradeSheet(std.Name, res)
	if err != nil {
		return errors.Wrap(err, "rendering grade sheet")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="grade-sheet.pdf"`)
	return ctx.Blob(http.StatusOK, "application/pdf", doc)
}

func (api *gradeApi) studentGPA(ctx echo.Context) error {
	q := bindYearSemester(ctx)
	gpa, err := api.svc.GPA(ctx.Request().Context(), ctx.Param("id"), q.Year, q.Semester)
	if err != nil {
		return errors.Wrap(err, "computing GPA")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"gpa": gpa})
}
