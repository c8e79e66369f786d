package dummydb

import (
	"sync"

	"github.com/tmalache/chuo/core/announcement"
	"github.com/tmalache/chuo/core/asset"
	"github.com/tmalache/chuo/core/attendance"
	"github.com/tmalache/chuo/core/course"
	"github.com/tmalache/chuo/core/fee"
	"github.com/tmalache/chuo/core/grade"
	"github.com/tmalache/chuo/core/user"
)

type (
	DB struct {
		admins        *table[user.Admin]
		faculty       *table[user.Faculty]
		students      *table[user.Student]
		departments   *table[course.Department]
		courses       *table[course.Course]
		enrollments   *enrollmentTable
		materials     *table[course.CourseMaterial]
		slots         *table[course.TimetableSlot]
		grades        *table[grade.Grade]
		attendance    *table[attendance.Record]
		fees          *table[fee.Fee]
		payments      *table[fee.Payment]
		announcements *table[announcement.Announcement]
		notifications *table[announcement.Notification]
		resources     *table[asset.Resource]
		inventory     *table[asset.InventoryItem]
	}

	table[T any] struct {
		sync.RWMutex
		rows map[string]*T
	}

	enrollmentTable struct {
		sync.RWMutex
		// course id -> enrolled student ids, insertion ordered
		rows map[string][]string
	}
)

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]*T)}
}

func Open() (*DB, error) {
	db := &DB{
		admins:        newTable[user.Admin](),
		faculty:       newTable[user.Faculty](),
		students:      newTable[user.Student](),
		departments:   newTable[course.Department](),
		courses:       newTable[course.Course](),
		enrollments:   &enrollmentTable{rows: make(map[string][]string)},
		materials:     newTable[course.CourseMaterial](),
		slots:         newTable[course.TimetableSlot](),
		grades:        newTable[grade.Grade](),
		attendance:    newTable[attendance.Record](),
		fees:          newTable[fee.Fee](),
		payments:      newTable[fee.Payment](),
		announcements: newTable[announcement.Announcement](),
		notifications: newTable[announcement.Notification](),
		resources:     newTable[asset.Resource](),
		inventory:     newTable[asset.InventoryItem](),
	}
	return db, nil
}
