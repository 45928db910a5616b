// Package inmemdb keeps every table in process memory. It backs tests and local demos.
package inmemdb

import (
	"sync"

	"github.com/trezcool/libdesk/core/appversion"
	"github.com/trezcool/libdesk/core/founder"
	"github.com/trezcool/libdesk/core/library"
	"github.com/trezcool/libdesk/core/otp"
	"github.com/trezcool/libdesk/core/payment"
	"github.com/trezcool/libdesk/core/student"
)

type DB struct {
	mutex sync.RWMutex

	founders    map[string]*founder.Founder
	libraries   map[string]*library.Library
	activities  []library.Activity
	students    map[string]*student.Student
	payments    map[string]*payment.Payment
	appVersions []appversion.AppVersion
	otps        map[string]otp.OTP // {email+code: OTP}

	seqMutex  sync.Mutex // guards sequences only, so seeds may read other tables
	sequences map[string]int
}

func Open() *DB {
	return &DB{
		founders:  make(map[string]*founder.Founder),
		libraries: make(map[string]*library.Library),
		students:  make(map[string]*student.Student),
		payments:  make(map[string]*payment.Payment),
		otps:      make(map[string]otp.OTP),
		sequences: make(map[string]int),
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.founders = make(map[string]*founder.Founder)
	db.libraries = make(map[string]*library.Library)
	db.activities = nil
	db.students = make(map[string]*student.Student)
	db.payments = make(map[string]*payment.Payment)
	db.appVersions = nil
	db.otps = make(map[string]otp.OTP)

	db.seqMutex.Lock()
	db.sequences = make(map[string]int)
	db.seqMutex.Unlock()
}
