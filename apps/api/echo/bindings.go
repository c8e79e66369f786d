package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tmalache/chuo/core"
	"github.com/tmalache/chuo/core/user"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Role  user.Role `json:"role" validate:"required"`
		Email string    `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	// YearSemesterQuery is the optional (year, semester) window shared by
	// grade, result and fee listings. Zero means unconstrained.
	YearSemesterQuery struct {
		Year     int `query:"year"`
		Semester int `query:"semester"`
	}

	// DateRangeQuery is the optional [from, to] window on attendance
	// listings, formatted 2006-01-02.
	DateRangeQuery struct {
		From string `query:"from"`
		To   string `query:"to"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.Validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate() error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return core.Validate.Struct(pr)
}

func (dr DateRangeQuery) Parse() (from, to time.Time, err error) {
	if dr.From != "" {
		if from, err = time.Parse("2006-01-02", dr.From); err != nil {
			return from, to, core.NewValidationError(err, core.FieldError{Field: "from", Error: "from must be formatted as 2006-01-02"})
		}
	}
	if dr.To != "" {
		if to, err = time.Parse("2006-01-02", dr.To); err != nil {
			return from, to, core.NewValidationError(err, core.FieldError{Field: "to", Error: "to must be formatted as 2006-01-02"})
		}
	}
	return from.UTC(), to.UTC(), nil
}

func bindYearSemester(ctx echo.Context) YearSemesterQuery {
	var q YearSemesterQuery
	_ = ctx.Bind(&q)
	return q
}
