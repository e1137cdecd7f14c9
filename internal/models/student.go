package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID            string     `db:"id" json:"id"`
	StudentID     string     `db:"student_id" json:"student_id"`
	Name          string     `db:"name" json:"name"`
	Email         *string    `db:"email" json:"email,omitempty"`
	Class         string     `db:"class" json:"class"`
	Section       string     `db:"section" json:"section"`
	Roll          string     `db:"roll" json:"roll"`
	GuardianName  string     `db:"guardian_name" json:"guardian_name"`
	GuardianPhone string     `db:"guardian_phone" json:"guardian_phone"`
	Phone         *string    `db:"phone" json:"phone,omitempty"`
	Address       *string    `db:"address" json:"address,omitempty"`
	DateOfBirth   *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Status        string     `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search   string
	Class    string
	Section  string
	Status   string
	Page     int
	PageSize int
}
