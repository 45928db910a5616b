package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/libdesk/core"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

type Shift string

const (
	ShiftFirst     Shift = "First"
	ShiftSecond    Shift = "Second"
	ShiftThird     Shift = "Third"
	ShiftReserved  Shift = "Reserved"
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
	ShiftEvening   Shift = "evening"
)

// Student is enrolled in exactly one library. RollNumber is assigned on creation and never changes.
type Student struct {
	ID           string     `json:"id" db:"id"`
	LibraryID    string     `json:"libraryId" db:"library_id"`
	Name         string     `json:"name" db:"name"`
	Mobile       string     `json:"mobile" db:"mobile"`
	Aadhar       string     `json:"aadhar" db:"aadhar"`
	RollNumber   string     `json:"rollNumber" db:"roll_number"`
	Gender       Gender     `json:"gender" db:"gender"`
	DateOfBirth  time.Time  `json:"dateOfBirth" db:"date_of_birth"`
	Shift        Shift      `json:"shift" db:"shift"`
	Address      string     `json:"address" db:"address"`
	FatherName   string     `json:"fatherName" db:"father_name"`
	Email        string     `json:"email" db:"email"`
	JoiningDate  time.Time  `json:"joiningDate" db:"joining_date"`
	NextDueDate  *time.Time `json:"nextDueDate" db:"next_due_date"`
	LastPaidDate *time.Time `json:"lastPaidDate" db:"last_paid_date"`
	ProfileImage string     `json:"profileImage" db:"profile_image"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

// NewStudent contains information needed to enroll a Student.
type NewStudent struct {
	Name        string     `json:"name" validate:"required,notblank,max=100"`
	Mobile      string     `json:"mobile" validate:"required,phone"`
	Aadhar      string     `json:"aadhar" validate:"required,numeric,len=12"`
	Gender      Gender     `json:"gender" validate:"required,oneof=Male Female Other"`
	DateOfBirth *core.Date `json:"dateOfBirth" validate:"required"`
	Shift       Shift      `json:"shift" validate:"required,oneof=First Second Third Reserved morning afternoon evening"`
	Address     string     `json:"address" validate:"max=200"`
	FatherName  string     `json:"fatherName" validate:"max=100"`
	Email       string     `json:"email" validate:"omitempty,email"`
	JoiningDate *core.Date `json:"joiningDate" validate:"required"`
	NextDueDate *core.Date `json:"nextDueDate" validate:"required"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Mobile = core.CleanString(ns.Mobile)
	ns.Aadhar = core.CleanString(ns.Aadhar)
	ns.Address = core.CleanString(ns.Address)
	ns.FatherName = core.CleanString(ns.FatherName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Nil fields are left untouched; the roll number and library cannot be changed.
type UpdateStudent struct {
	Name         *string    `json:"name" validate:"omitempty,notblank,max=100"`
	Mobile       *string    `json:"mobile" validate:"omitempty,phone"`
	Aadhar       *string    `json:"aadhar" validate:"omitempty,numeric,len=12"`
	Gender       *Gender    `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	DateOfBirth  *core.Date `json:"dateOfBirth"`
	Shift        *Shift     `json:"shift" validate:"omitempty,oneof=First Second Third Reserved morning afternoon evening"`
	Address      *string    `json:"address" validate:"omitempty,max=200"`
	FatherName   *string    `json:"fatherName" validate:"omitempty,max=100"`
	Email        *string    `json:"email" validate:"omitempty,email"`
	JoiningDate  *core.Date `json:"joiningDate"`
	NextDueDate  *core.Date `json:"nextDueDate"`
	LastPaidDate *core.Date `json:"lastPaidDate"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	for _, s := range []*string{us.Name, us.Mobile, us.Aadhar, us.Address, us.FatherName} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if us.Email != nil {
		*us.Email = core.CleanString(*us.Email, true /* lower */)
	}
	return validate.Struct(us)
}

// QueryFilter narrows a library's student list. Search does a case-insensitive match on
// one of Name, RollNumber or Mobile.
type QueryFilter struct {
	Search string `query:"search"`
	Shift  Shift  `query:"shift"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Shift = Shift(core.CleanString(string(qf.Shift)))
}

// DueStudent is the summary returned by the due fees report.
type DueStudent struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	RollNumber  string    `json:"rollNumber" db:"roll_number"`
	Mobile      string    `json:"mobile" db:"mobile"`
	Shift       Shift     `json:"shift" db:"shift"`
	NextDueDate time.Time `json:"nextDueDate" db:"next_due_date"`
	Overdue     bool      `json:"overdue" db:"-"`
}
