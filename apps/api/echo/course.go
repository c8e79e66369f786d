package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core"
	"github.com/tmalache/chuo/core/course"
	"github.com/tmalache/chuo/core/user"
)

type courseApi struct {
	svc *course.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *course.Service) {
	api := courseApi{svc: svc}
	admin := tierMiddleware(user.TierAdmin)
	faculty := tierMiddleware(user.TierFaculty)

	dg := g.Group("/departments", jwt)
	dg.POST("", api.createDepartment, admin)
	dg.GET("", api.queryDepartments)
	dg.GET("/:id", api.retrieveDepartment)
	dg.PUT("/:id", api.updateDepartment, admin)
	dg.DELETE("/:id", api.destroyDepartment, admin)

	cg := g.Group("/courses", jwt)
	cg.POST("", api.create, admin)
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update, admin)
	cg.DELETE("/:id", api.destroy, admin)
	cg.PUT("/:id/assign-faculty", api.assignFaculty, admin)
	cg.POST("/:id/enroll", api.enroll, admin)
	cg.POST("/:id/unenroll", api.unenroll, admin)
	cg.GET("/:id/roster", api.roster, faculty)

	cg.GET("/:id/materials", api.queryMaterials)
	cg.POST("/:id/materials", api.addMaterial, faculty)
	mg := g.Group("/materials", jwt, faculty)
	mg.PUT("/:id", api.updateMaterial)
	mg.DELETE("/:id", api.destroyMaterial)

	cg.GET("/:id/timetable", api.courseTimetable)
	cg.POST("/:id/timetable", api.addTimetableSlot, admin)
	g.DELETE("/timetable/:id", api.destroyTimetableSlot, jwt, admin)

	g.GET("/students/:id/courses", api.studentCourses, jwt, selfOrTierMiddleware(user.TierFaculty))
	g.GET("/students/:id/timetable", api.studentTimetable, jwt, selfOrTierMiddleware(user.TierFaculty))
}

// Departments

func (api *courseApi) createDepartment(ctx echo.Context) error {
	var data course.NewDepartment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDepartment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	dept, err := api.svc.CreateDepartment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating department")
	}
	return ctx.JSON(http.StatusCreated, dept)
}

func (api *courseApi) queryDepartments(ctx echo.Context) error {
	depts, err := api.svc.QueryDepartments(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying departments")
	}
	if depts == nil {
		depts = []course.Department{}
	}
	return ctx.JSON(http.StatusOK, depts)
}

func (api *courseApi) retrieveDepartment(ctx echo.Context) error {
	dept, err := api.svc.GetDepartment(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dept)
}

func (api *courseApi) updateDepartment(ctx echo.Context) error {
	var data course.NewDepartment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDepartment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	dept, err := api.svc.UpdateDepartment(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dept)
}

func (api *courseApi) destroyDepartment(ctx echo.Context) error {
	if err := api.svc.DeleteDepartment(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Courses

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Clean()

	courses, err := api.svc.QueryCourses(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	detail, err := api.svc.GetCourseDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.UpdateCourse(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteCourse(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) assignFaculty(ctx echo.Context) error {
	var data struct {
		FacultyID string `json:"faculty_id" validate:"required"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to faculty assignment")
	}
	if err := core.Validate.Struct(data); err != nil {
		return err
	}

	crs, err := api.svc.AssignFaculty(ctx.Request().Context(), ctx.Param("id"), data.FacultyID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

// Enrollment

type enrollmentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

func (api *courseApi) enroll(ctx echo.Context) error {
	var data enrollmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to enrollmentRequest")
	}
	if err := core.Validate.Struct(data); err != nil {
		return err
	}

	if err := api.svc.Enroll(ctx.Request().Context(), ctx.Param("id"), data.StudentID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "student enrolled"})
}

func (api *courseApi) unenroll(ctx echo.Context) error {
	var data enrollmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to enrollmentRequest")
	}
	if err := core.Validate.Struct(data); err != nil {
		return err
	}

	if err := api.svc.Unenroll(ctx.Request().Context(), ctx.Param("id"), data.StudentID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) roster(ctx echo.Context) error {
	students, err := api.svc.GetRoster(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if students == nil {
		students = []course.StudentRef{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *courseApi) studentCourses(ctx echo.Context) error {
	courses, err := api.svc.GetCoursesForStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying student courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

// Materials

func (api *courseApi) queryMaterials(ctx echo.Context) error {
	materials, err := api.svc.GetMaterials(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if materials == nil {
		materials = []course.CourseMaterial{}
	}
	return ctx.JSON(http.StatusOK, materials)
}

func (api *courseApi) addMaterial(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data course.NewMaterial
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	mat, err := api.svc.AddMaterial(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, mat)
}

func (api *courseApi) updateMaterial(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data course.NewMaterial
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	mat, err := api.svc.UpdateMaterial(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mat)
}

func (api *courseApi) destroyMaterial(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err = api.svc.DeleteMaterial(ctx.Request().Context(), ctx.Param("id"), claims.Subject); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Timetable

func (api *courseApi) courseTimetable(ctx echo.Context) error {
	slots, err := api.svc.GetTimetable(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if slots == nil {
		slots = []course.TimetableSlot{}
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *courseApi) addTimetableSlot(ctx echo.Context) error {
	var data course.NewTimetableSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTimetableSlot")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	slot, err := api.svc.AddTimetableSlot(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, slot)
}

func (api *courseApi) destroyTimetableSlot(ctx echo.Context) error {
	if err := api.svc.DeleteTimetableSlot(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) studentTimetable(ctx echo.Context) error {
	slots, err := api.svc.GetTimetableForStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying student timetable")
	}
	if slots == nil {
		slots = []course.TimetableSlot{}
	}
	return ctx.JSON(http.StatusOK, slots)
}
