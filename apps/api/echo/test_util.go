package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tmalache/chuo/core"
	"github.com/tmalache/chuo/core/announcement"
	"github.com/tmalache/chuo/core/asset"
	"github.com/tmalache/chuo/core/attendance"
	"github.com/tmalache/chuo/core/course"
	"github.com/tmalache/chuo/core/fee"
	"github.com/tmalache/chuo/core/grade"
	"github.com/tmalache/chuo/core/user"
	logsvc "github.com/tmalache/chuo/services/logger"
	pdfsvc "github.com/tmalache/chuo/services/pdf"
	queuesvc "github.com/tmalache/chuo/services/queue"
	realtimesvc "github.com/tmalache/chuo/services/realtime"
	dummydb "github.com/tmalache/chuo/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func testConf() *core.Config {
	return &core.Config{
		TestMode:                  true,
		AppName:                   "Chuo",
		SecretKey:                 []byte("secret"),
		PaymentSecret:             []byte("payment-secret"),
		FrontendBaseURL:           "http://localhost:3000",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta: 10 * time.Minute,
			// rate limiting off in tests
			RateLimitPerMin:      0,
			LoginRateLimitPerMin: 0,
		},
	}
}

// studentDirectory and courseDirectory mirror the wiring in the api
// binary; consumer packages only see their own narrow interfaces.
type studentDirectory struct {
	svc *user.Service
}

func (d studentDirectory) GetStudentRef(ctx context.Context, id string) (course.StudentRef, error) {
	std, err := d.svc.GetStudent(ctx, id)
	if err != nil {
		return course.StudentRef{}, err
	}
	return course.StudentRef{ID: std.ID, Name: std.Name, RegistrationNumber: std.RegistrationNumber}, nil
}

func (d studentDirectory) ListStudentIDs(ctx context.Context) ([]string, error) {
	students, err := d.svc.QueryStudents(ctx, nil)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(students))
	for _, std := range students {
		ids = append(ids, std.ID)
	}
	return ids, nil
}

func (d studentDirectory) GetStudentContact(ctx context.Context, id string) (string, string, error) {
	std, err := d.svc.GetStudent(ctx, id)
	if err != nil {
		return "", "", err
	}
	return std.Name, std.Email, nil
}

type courseDirectory struct {
	svc *course.Service
}

func (d courseDirectory) GetCourseRef(ctx context.Context, id string) (grade.CourseRef, error) {
	crs, err := d.svc.GetCourse(ctx, id)
	if err != nil {
		return grade.CourseRef{}, err
	}
	return grade.CourseRef{ID: crs.ID, Name: crs.Name, Code: crs.Code, Credits: crs.Credits}, nil
}

func (d courseDirectory) OwnsCourse(ctx context.Context, courseID, facultyID string) (bool, error) {
	return d.svc.OwnsCourse(ctx, courseID, facultyID)
}

func (d courseDirectory) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	return d.svc.IsEnrolled(ctx, courseID, studentID)
}

// testApp bundles the server under test with the services needed to
// seed fixtures.
type testApp struct {
	server Server

	userSvc         *user.Service
	courseSvc       *course.Service
	gradeSvc        *grade.Service
	attendanceSvc   *attendance.Service
	feeSvc          *fee.Service
	announcementSvc *announcement.Service
	assetSvc        *asset.Service
}

func initApp(t *testing.T) *testApp {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("initApp() failed: %v", err)
	}

	conf := testConf()
	logger := logsvc.NewPlainLogger(log.New(io.Discard, "", 0))
	queue := queuesvc.NewMemoryQueue(64)
	hub := realtimesvc.NewHub(logger)

	userSvc := user.NewService(
		dummydb.NewAdminRepository(db),
		dummydb.NewFacultyRepository(db),
		dummydb.NewStudentRepository(db),
		queue, logger, conf,
	)
	students := studentDirectory{svc: userSvc}
	courseSvc := course.NewService(dummydb.NewCourseRepository(db), students, logger)
	courses := courseDirectory{svc: courseSvc}

	app := &testApp{
		userSvc:         userSvc,
		courseSvc:       courseSvc,
		gradeSvc:        grade.NewService(dummydb.NewGradeRepository(db), courses, logger),
		attendanceSvc:   attendance.NewService(dummydb.NewAttendanceRepository(db), courses, logger),
		feeSvc:          fee.NewService(dummydb.NewFeeRepository(db), students, queue, logger, conf),
		announcementSvc: announcement.NewService(dummydb.NewAnnouncementRepository(db), hub, students, logger),
		assetSvc:        asset.NewService(dummydb.NewAssetRepository(db), logger),
	}
	app.server = NewServer(&Options{
		Conf:            conf,
		Logger:          logger,
		DisableReqLogs:  true,
		UserSvc:         app.userSvc,
		CourseSvc:       app.courseSvc,
		GradeSvc:        app.gradeSvc,
		AttendanceSvc:   app.attendanceSvc,
		FeeSvc:          app.feeSvc,
		AnnouncementSvc: app.announcementSvc,
		AssetSvc:        app.assetSvc,
		PDFSvc:          pdfsvc.NewService(conf.AppName),
		Hub:             hub,
	})
	return app
}

// fixtures

const testPwd = "V4lid#Secret"

func (app *testApp) createAdmin(t *testing.T, name, email string) user.Admin {
	adm, err := app.userSvc.CreateAdmin(context.Background(), name, email, testPwd)
	if err != nil {
		t.Fatalf("createAdmin() failed: %v", err)
	}
	return adm
}

func (app *testApp) createFaculty(t *testing.T, name, email, deptID string) user.Faculty {
	fac, err := app.userSvc.CreateFaculty(context.Background(), user.NewFaculty{
		Name:            name,
		Email:           email,
		Password:        testPwd,
		PasswordConfirm: testPwd,
		DepartmentID:    deptID,
		Designation:     "Lecturer",
	})
	if err != nil {
		t.Fatalf("createFaculty() failed: %v", err)
	}
	return fac
}

func (app *testApp) createStudent(t *testing.T, name, email string, approve bool) user.Student {
	ctx := context.Background()
	std, err := app.userSvc.RegisterStudent(ctx, user.NewStudent{
		Name:            name,
		Email:           email,
		Password:        testPwd,
		PasswordConfirm: testPwd,
		Year:            1,
		Semester:        1,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	if approve {
		if std, err = app.userSvc.SetRegistrationStatus(ctx, std.ID, user.StatusApproved); err != nil {
			t.Fatalf("createStudent() approve failed: %v", err)
		}
	}
	return std
}

func (app *testApp) createDepartment(t *testing.T, name, code string) course.Department {
	dept, err := app.courseSvc.CreateDepartment(context.Background(), course.NewDepartment{Name: name, Code: code})
	if err != nil {
		t.Fatalf("createDepartment() failed: %v", err)
	}
	return dept
}

func (app *testApp) createCourse(t *testing.T, deptID, facultyID string, maxStudents int) course.Course {
	crs, err := app.courseSvc.CreateCourse(context.Background(), course.NewCourse{
		Name:         "Algorithms",
		Code:         "CS201",
		DepartmentID: deptID,
		FacultyID:    facultyID,
		Credits:      4,
		MaxStudents:  maxStudents,
		Year:         1,
		Semester:     1,
	})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return crs
}

// requests

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, acct user.Account) string {
	claims := GetAccountClaims(acct)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
