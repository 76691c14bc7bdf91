// Package inmemdb is an in-memory planner backend, used for development and tests.
package inmemdb

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/cuaderno/core/planner"
)

// ErrOffline is returned by every call while the DB is set offline.
var ErrOffline = errors.New("inmemdb: backend unreachable")

type (
	DB struct {
		mutex sync.RWMutex

		activities map[string]planner.Activity
		students   map[string]planner.Student
		timeSlots  map[string]planner.TimeSlot
		schedule   map[string]string
		overrides  map[string]planner.ScheduleOverride
		entries    map[string]planner.ClassEntry
		course     planner.CourseSettings

		// insertion order, so lists come back the way they were written
		seq   int
		order map[string]int

		offline    bool
		writesLeft int // < 0: unlimited
		writes     int
	}
)

func Open() *DB {
	db := &DB{writesLeft: -1}
	db.reset()
	return db
}

func (db *DB) reset() {
	db.activities = make(map[string]planner.Activity)
	db.students = make(map[string]planner.Student)
	db.timeSlots = make(map[string]planner.TimeSlot)
	db.schedule = make(map[string]string)
	db.overrides = make(map[string]planner.ScheduleOverride)
	db.entries = make(map[string]planner.ClassEntry)
	db.course = planner.CourseSettings{}
	db.order = make(map[string]int)
}

// SetOffline makes every call fail with ErrOffline until set back online.
func (db *DB) SetOffline(offline bool) {
	db.mutex.Lock()
	db.offline = offline
	db.mutex.Unlock()
}

// FailWritesAfter lets n more writes succeed, then fails the next ones with ErrOffline. A negative n disables it.
func (db *DB) FailWritesAfter(n int) {
	db.mutex.Lock()
	db.writesLeft = n
	db.mutex.Unlock()
}

// Writes returns the number of successful writes so far.
func (db *DB) Writes() int {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.writes
}

func (db *DB) checkRead() error {
	if db.offline {
		return ErrOffline
	}
	return nil
}

// checkWrite must be called with the write lock held.
func (db *DB) checkWrite() error {
	if db.offline {
		return ErrOffline
	}
	if db.writesLeft == 0 {
		return ErrOffline
	}
	if db.writesLeft > 0 {
		db.writesLeft--
	}
	db.writes++
	return nil
}

func (db *DB) touch(key string) {
	if _, ok := db.order[key]; !ok {
		db.seq++
		db.order[key] = db.seq
	}
}
