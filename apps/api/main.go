package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/tmalache/chuo/apps/api/echo"
	"github.com/tmalache/chuo/core"
	"github.com/tmalache/chuo/core/announcement"
	"github.com/tmalache/chuo/core/asset"
	"github.com/tmalache/chuo/core/attendance"
	"github.com/tmalache/chuo/core/course"
	"github.com/tmalache/chuo/core/fee"
	"github.com/tmalache/chuo/core/grade"
	"github.com/tmalache/chuo/core/user"
	emailsvc "github.com/tmalache/chuo/services/email"
	logsvc "github.com/tmalache/chuo/services/logger"
	pdfsvc "github.com/tmalache/chuo/services/pdf"
	queuesvc "github.com/tmalache/chuo/services/queue"
	realtimesvc "github.com/tmalache/chuo/services/realtime"
	"github.com/tmalache/chuo/storage/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("api: %+v", err)
	}
}

func run() error {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		return err
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		return fmt.Errorf("setting up database: %w", err)
	}
	defer db.Close()

	// outbound email and the task queue draining it
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}
	var queue core.TaskQueue
	if conf.Debug || conf.TestMode {
		queue = queuesvc.NewMemoryQueue(0)
	} else {
		if queue, err = queuesvc.NewRedisQueue(conf, logger); err != nil {
			return fmt.Errorf("setting up task queue: %w", err)
		}
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	worker := queuesvc.NewWorker(queue, mailSvc, logger)
	go func() {
		if err := worker.Run(workerCtx); err != nil && workerCtx.Err() == nil {
			logger.Error("task worker stopped", err)
		}
	}()

	// websocket fan-out hub
	hub := realtimesvc.NewHub(logger)
	go hub.Run()

	// =========================================================================
	// Set up Services

	usrSvc := user.NewService(
		database.NewAdminRepository(db),
		database.NewFacultyRepository(db),
		database.NewStudentRepository(db),
		queue, logger, conf,
	)
	students := studentDirectory{svc: usrSvc}

	courseSvc := course.NewService(database.NewCourseRepository(db), students, logger)
	courses := courseDirectory{svc: courseSvc}

	gradeSvc := grade.NewService(database.NewGradeRepository(db), courses, logger)
	attendanceSvc := attendance.NewService(database.NewAttendanceRepository(db), courses, logger)
	feeSvc := fee.NewService(database.NewFeeRepository(db), students, queue, logger, conf)
	announcementSvc := announcement.NewService(database.NewAnnouncementRepository(db), hub, students, logger)
	assetSvc := asset.NewService(database.NewAssetRepository(db), logger)
	pdf := pdfsvc.NewService(conf.AppName)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : env %q", conf.Env))
	defer logger.Info("Application stopped")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Conf:           conf,
		Logger:         logger,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },

		UserSvc:         usrSvc,
		CourseSvc:       courseSvc,
		GradeSvc:        gradeSvc,
		AttendanceSvc:   attendanceSvc,
		FeeSvc:          feeSvc,
		AnnouncementSvc: announcementSvc,
		AssetSvc:        assetSvc,
		PDFSvc:          pdf,
		Hub:             hub,
	})

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Stop(ctx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}
	return nil
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}
