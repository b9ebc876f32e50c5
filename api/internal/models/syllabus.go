package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SubjectCode identifies an examination board syllabus.
type SubjectCode string

const (
	SubjectEdexcelIGCSEComputerScience SubjectCode = "4CP0"
	SubjectEdexcelIGCSEICT             SubjectCode = "41T1"
	SubjectEdexcelIALIT                SubjectCode = "X/YIT11"
	SubjectCambridgeOLevelCS           SubjectCode = "2210"
	SubjectCambridgeIALCS              SubjectCode = "9618"
	SubjectIBDiplomaCS                 SubjectCode = "HL, 2014"
)

var subjectCodes = map[SubjectCode]struct{}{
	SubjectEdexcelIGCSEComputerScience: {},
	SubjectEdexcelIGCSEICT:             {},
	SubjectEdexcelIALIT:                {},
	SubjectCambridgeOLevelCS:           {},
	SubjectCambridgeIALCS:              {},
	SubjectIBDiplomaCS:                 {},
}

// Valid reports whether c is a known subject code.
func (c SubjectCode) Valid() bool {
	_, ok := subjectCodes[c]
	return ok
}

// SubjectCodes lists every known subject code.
func SubjectCodes() []SubjectCode {
	return []SubjectCode{
		SubjectEdexcelIGCSEComputerScience,
		SubjectEdexcelIGCSEICT,
		SubjectEdexcelIALIT,
		SubjectCambridgeOLevelCS,
		SubjectCambridgeIALCS,
		SubjectIBDiplomaCS,
	}
}

// SyllabusLevel is the qualification level of a syllabus.
type SyllabusLevel string

const (
	LevelIGCSE   SyllabusLevel = "igcse"
	LevelOLevel  SyllabusLevel = "olevel"
	LevelALevel  SyllabusLevel = "alevel"
	LevelDiploma SyllabusLevel = "diploma"
)

// Valid reports whether l is a known level.
func (l SyllabusLevel) Valid() bool {
	switch l {
	case LevelIGCSE, LevelOLevel, LevelALevel, LevelDiploma:
		return true
	}
	return false
}

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date serialised as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate returns the date of t, in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	parsed, err := ParseDate(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Syllabus is a course of study a user is enrolled on.
type Syllabus struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Code            SubjectCode   `json:"code"`
	Level           SyllabusLevel `json:"level"`
	ExaminationDate Date          `json:"examination_date"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Clone returns a copy of s.
func (s *Syllabus) Clone() *Syllabus {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
