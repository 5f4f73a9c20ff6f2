package models

import (
	"regexp"
	"strconv"
)

// Gender is the roster gender code.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// ParticipantKey is the natural key of a participant.
type ParticipantKey struct {
	Name      string
	BirthDate string
}

// Less orders keys by name, then birth date.
func (k ParticipantKey) Less(other ParticipantKey) bool {
	if k.Name != other.Name {
		return k.Name < other.Name
	}
	return k.BirthDate < other.BirthDate
}

// BirthYear returns the four-digit year prefix of BirthDate, or 0 if the
// prefix is not numeric.
func (k ParticipantKey) BirthYear() int {
	return BirthYearOf(k.BirthDate)
}

// Participant is a person on the roster.
type Participant struct {
	// Name is the first half of the natural key.
	Name string `json:"name" validate:"required,max=100"`

	// BirthDate is the second half of the natural key.
	// Stored as "YYYY-01-01" when only the birth year is known.
	BirthDate string `json:"birthDate" validate:"required,birthdate"`

	Gender   Gender `json:"gender" validate:"required,oneof=M F"`
	Nickname string `json:"nickname,omitempty" validate:"max=100"`
	Phone    string `json:"phone,omitempty" validate:"max=32"`
	Location string `json:"location,omitempty" validate:"max=200"`
	Job      string `json:"job,omitempty" validate:"max=200"`

	// TypeCode is a free-text personality type, conventionally four letters ("ENFP").
	TypeCode string `json:"typeCode,omitempty" validate:"max=16"`

	Intro       string `json:"intro,omitempty" validate:"max=2000"`
	SignupRoute string `json:"signupRoute,omitempty" validate:"max=200"`

	// FirstVisitDate is set on first registration and never overwritten.
	FirstVisitDate string `json:"firstVisitDate,omitempty" validate:"omitempty,datetime=2006-01-02"`

	// Memo is the admin note. Only UpdateMemo changes it after creation.
	Memo string `json:"memo,omitempty" validate:"max=2000"`
}

// Key returns the participant's natural key.
func (p *Participant) Key() ParticipantKey {
	return ParticipantKey{Name: p.Name, BirthDate: p.BirthDate}
}

// BirthYear returns the four-digit birth year, or 0 if unknown.
func (p *Participant) BirthYear() int {
	return BirthYearOf(p.BirthDate)
}

var (
	yearOnlyPattern  = regexp.MustCompile(`^\d{4}$`)
	birthDatePattern = regexp.MustCompile(`^\d{4}(-\d{2}-\d{2})?$`)
)

// IsBirthDate reports whether s is either a bare four-digit year or a
// YYYY-MM-DD date.
func IsBirthDate(s string) bool {
	return birthDatePattern.MatchString(s)
}

// NormalizeBirthDate expands a bare birth year into the stored "YYYY-01-01"
// form. Any other input is returned unchanged.
func NormalizeBirthDate(s string) string {
	if yearOnlyPattern.MatchString(s) {
		return s + "-01-01"
	}
	return s
}

// BirthYearOf parses the four-digit year prefix of a birth date.
func BirthYearOf(birthDate string) int {
	if len(birthDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(birthDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// ParticipantFilter selects participants for the recommendation pool.
// Zero values mean "no constraint".
type ParticipantFilter struct {
	Gender Gender

	// BirthYearMin and BirthYearMax bound the birth year inclusively.
	BirthYearMin int
	BirthYearMax int

	// TypeContains is a case-sensitive substring of TypeCode.
	TypeContains string
}
