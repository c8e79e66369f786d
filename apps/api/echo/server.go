package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/tmalache/chuo/core"
	"github.com/tmalache/chuo/core/announcement"
	"github.com/tmalache/chuo/core/asset"
	"github.com/tmalache/chuo/core/attendance"
	"github.com/tmalache/chuo/core/course"
	"github.com/tmalache/chuo/core/fee"
	"github.com/tmalache/chuo/core/grade"
	"github.com/tmalache/chuo/core/user"
	pdfsvc "github.com/tmalache/chuo/services/pdf"
	realtimesvc "github.com/tmalache/chuo/services/realtime"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		// SignalShutdown is invoked when a request fails with a shutdown
		// error; main wires it to the process signal channel.
		SignalShutdown func()

		UserSvc         *user.Service
		CourseSvc       *course.Service
		GradeSvc        *grade.Service
		AttendanceSvc   *attendance.Service
		FeeSvc          *fee.Service
		AnnouncementSvc *announcement.Service
		AssetSvc        *asset.Service
		PDFSvc          *pdfsvc.Service
		Hub             *realtimesvc.Hub
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(metricsMiddleware())
	s.app.Use(rateLimitMiddleware(conf.Server.RateLimitPerMin))

	signalShutdown := s.opts.SignalShutdown
	if signalShutdown == nil {
		signalShutdown = func() {}
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, conf.Debug, signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)
	s.app.GET("/metrics", metricsHandler())

	v1 := s.app.Group("/v1")
	jwt := ConfigureAuth(conf.AppName, conf.SecretKey, conf.Server.JWTExpirationDelta)
	loginLimit := rateLimitMiddleware(conf.Server.LoginRateLimitPerMin)

	registerAuthAPI(v1, jwt, s.opts.UserSvc, loginLimit)
	registerStudentAPI(v1, jwt, s.opts.UserSvc)
	registerFacultyAPI(v1, jwt, s.opts.UserSvc)
	registerCourseAPI(v1, jwt, s.opts.CourseSvc)
	registerGradeAPI(v1, jwt, s.opts.GradeSvc, s.opts.UserSvc, s.opts.PDFSvc)
	registerAttendanceAPI(v1, jwt, s.opts.AttendanceSvc)
	registerFeeAPI(v1, jwt, s.opts.FeeSvc, s.opts.UserSvc, s.opts.PDFSvc)
	registerAnnouncementAPI(v1, jwt, s.opts.AnnouncementSvc, s.opts.UserSvc, s.opts.Hub)
	registerAssetAPI(v1, jwt, s.opts.AssetSvc)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Conf.Server.Address())
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Chuo API!")
}
