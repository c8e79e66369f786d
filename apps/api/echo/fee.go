package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core/fee"
	"github.com/tmalache/chuo/core/user"
	pdfsvc "github.com/tmalache/chuo/services/pdf"
)

type feeApi struct {
	svc     *fee.Service
	userSvc *user.Service
	pdf     *pdfsvc.Service
}

func registerFeeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *fee.Service, userSvc *user.Service, pdf *pdfsvc.Service) {
	api := feeApi{svc: svc, userSvc: userSvc, pdf: pdf}
	admin := tierMiddleware(user.TierAdmin)

	fg := g.Group("/fees", jwt)
	fg.POST("", api.create, admin)
	fg.POST("/verify-payment", api.verifyPayment, tierMiddleware(user.TierStudent))
	fg.GET("/:id", api.retrieve)
	fg.DELETE("/:id", api.destroy, admin)

	g.GET("/students/:id/fees", api.studentFees, jwt, selfOrTierMiddleware(user.TierAdmin))
	g.GET("/payments/:id/receipt", api.receiptPDF, jwt)
}

func (api *feeApi) create(ctx echo.Context) error {
	var data fee.NewFee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFee")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	f, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, f)
}

// retrieve expands the payment ledger; a student only sees their own fee.
func (api *feeApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	detail, err := api.svc.GetDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if claims.Tier() < user.TierAdmin && detail.StudentID != claims.Subject {
		return errHttpForbidden
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *feeApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *feeApi) studentFees(ctx echo.Context) error {
	q := bindYearSemester(ctx)
	fees, err := api.svc.ListForStudent(ctx.Request().Context(), ctx.Param("id"), q.Year, q.Semester)
	if err != nil {
		return errors.Wrap(err, "querying student fees")
	}
	if fees == nil {
		fees = []fee.Fee{}
	}
	return ctx.JSON(http.StatusOK, fees)
}

type verifyPaymentResponse struct {
	Fee     fee.Fee     `json:"fee"`
	Payment fee.Payment `json:"payment"`
}

// verifyPayment is the gateway confirmation callback: the signature is
// checked before anything is written.
func (api *feeApi) verifyPayment(ctx echo.Context) error {
	var data fee.VerifyPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerifyPayment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	f, p, err := api.svc.VerifyAndRecord(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, verifyPaymentResponse{Fee: f, Payment: p})
}

func (api *feeApi) receiptPDF(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	p, err := api.svc.GetPayment(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}
	f, err := api.svc.Get(reqCtx, p.FeeID)
	if err != nil {
		return err
	}
	if claims.Tier() < user.TierAdmin && f.StudentID != claims.Subject {
		return errHttpForbidden
	}

	std, err := api.userSvc.GetStudent(reqCtx, f.StudentID)
	if err != nil {
		return err
	}
	doc, err := api.pdf.Receipt(std.Name, f, p)
	if err != nil {
		return errors.Wrap(err, "rendering receipt")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", p.ReceiptNumber+".pdf"))
	return ctx.Blob(http.StatusOK, "application/pdf", doc)
}
