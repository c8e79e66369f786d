package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core/announcement"
	"github.com/tmalache/chuo/core/user"
	realtimesvc "github.com/tmalache/chuo/services/realtime"
)

type announcementApi struct {
	svc     *announcement.Service
	userSvc *user.Service
	hub     *realtimesvc.Hub
}

func registerAnnouncementAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *announcement.Service, userSvc *user.Service, hub *realtimesvc.Hub) {
	api := announcementApi{svc: svc, userSvc: userSvc, hub: hub}
	admin := tierMiddleware(user.TierAdmin)

	ag := g.Group("/announcements", jwt)
	ag.POST("", api.create, admin)
	ag.GET("", api.query)
	ag.DELETE("/:id", api.destroy, admin)

	ng := g.Group("/notifications", jwt)
	ng.POST("", api.notify, admin)
	ng.GET("", api.queryNotifications)
	ng.PUT("/:id/read", api.markRead)

	g.GET("/ws", api.subscribe)
}

func (api *announcementApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data announcement.NewAnnouncement
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	ann, err := api.svc.Publish(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "publishing announcement")
	}
	return ctx.JSON(http.StatusCreated, ann)
}

// query returns what the caller may see: everything for admins, the
// audience- and department-filtered view for everyone else.
func (api *announcementApi) query(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var anns []announcement.Announcement
	switch claims.Role {
	case user.RoleAdmin:
		anns, err = api.svc.ListAll(reqCtx)
	case user.RoleFaculty:
		var deptID string
		if fac, fErr := api.userSvc.GetFaculty(reqCtx, claims.Subject); fErr == nil {
			deptID = fac.DepartmentID
		}
		anns, err = api.svc.ListVisible(reqCtx, announcement.AudienceFaculty, deptID, 0, 0)
	default:
		var deptID string
		var year, semester int
		if std, sErr := api.userSvc.GetStudent(reqCtx, claims.Subject); sErr == nil {
			deptID, year, semester = std.DepartmentID, std.Year, std.Semester
		}
		anns, err = api.svc.ListVisible(reqCtx, announcement.AudienceStudents, deptID, year, semester)
	}
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if anns == nil {
		anns = []announcement.Announcement{}
	}
	return ctx.JSON(http.StatusOK, anns)
}

func (api *announcementApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *announcementApi) notify(ctx echo.Context) error {
	var data announcement.NewNotification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.Notify(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "creating notifications")
	}
	return ctx.JSON(http.StatusCreated, SuccessResponse{Success: "notifications sent"})
}

func (api *announcementApi) queryNotifications(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	notifs, err := api.svc.ListNotifications(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []announcement.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *announcementApi) markRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	notif, err := api.svc.MarkRead(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, notif)
}

// subscribe upgrades the connection and attaches it to the hub; the
// stream is push-only and unauthenticated.
func (api *announcementApi) subscribe(ctx echo.Context) error {
	return api.hub.Subscribe(ctx.Response(), ctx.Request())
}
