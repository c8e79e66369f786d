package main

import (
	"context"

	"github.com/tmalache/chuo/core/announcement"
	"github.com/tmalache/chuo/core/attendance"
	"github.com/tmalache/chuo/core/course"
	"github.com/tmalache/chuo/core/fee"
	"github.com/tmalache/chuo/core/grade"
	"github.com/tmalache/chuo/core/user"
)

// The domain packages declare the narrow slices they need from each
// other; these adapters satisfy them so the packages never import one
// another directly.

type studentDirectory struct {
	svc *user.Service
}

var (
	_ course.StudentDirectory       = (*studentDirectory)(nil)
	_ fee.StudentDirectory          = (*studentDirectory)(nil)
	_ announcement.StudentDirectory = (*studentDirectory)(nil)
)

func (d studentDirectory) GetStudentRef(ctx context.Context, id string) (course.StudentRef, error) {
	std, err := d.svc.GetStudent(ctx, id)
	if err != nil {
		return course.StudentRef{}, err
	}
	return course.StudentRef{
		ID:                 std.ID,
		Name:               std.Name,
		RegistrationNumber: std.RegistrationNumber,
	}, nil
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

func (d studentDirectory) GetStudentContact(ctx context.Context, id string) (name, email string, err error) {
	std, err := d.svc.GetStudent(ctx, id)
	if err != nil {
		return "", "", err
	}
	return std.Name, std.Email, nil
}

type courseDirectory struct {
	svc *course.Service
}

var (
	_ grade.CourseDirectory      = (*courseDirectory)(nil)
	_ attendance.CourseDirectory = (*courseDirectory)(nil)
)

func (d courseDirectory) GetCourseRef(ctx context.Context, id string) (grade.CourseRef, error) {
	crs, err := d.svc.GetCourse(ctx, id)
	if err != nil {
		return grade.CourseRef{}, err
	}
	return grade.CourseRef{
		ID:      crs.ID,
		Name:    crs.Name,
		Code:    crs.Code,
		Credits: crs.Credits,
	}, nil
}

func (d courseDirectory) OwnsCourse(ctx context.Context, courseID, facultyID string) (bool, error) {
	return d.svc.OwnsCourse(ctx, courseID, facultyID)
}

func (d courseDirectory) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	return d.svc.IsEnrolled(ctx, courseID, studentID)
}
