package models

import (
	"time"

	"github.com/lib/pq"
)

// Teacher represents an instructor record.
type Teacher struct {
	ID            string         `db:"id" json:"id"`
	TeacherID     string         `db:"teacher_id" json:"teacher_id"`
	Name          string         `db:"name" json:"name"`
	Email         string         `db:"email" json:"email"`
	Phone         string         `db:"phone" json:"phone"`
	Department    string         `db:"department" json:"department"`
	Designation   string         `db:"designation" json:"designation"`
	Qualification string         `db:"qualification" json:"qualification"`
	Experience    string         `db:"experience" json:"experience"`
	Subjects      pq.StringArray `db:"subjects" json:"subjects"`
	Status        string         `db:"status" json:"status"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search     string
	Department string
	Status     string
	Page       int
	PageSize   int
}
