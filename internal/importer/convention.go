// Package importer loads past sessions from exported attendance sheets.
//
// A sheet follows the meetup's spreadsheet convention:
//
//   - the title carries the session date as YYYYMMDD ("20240315", or the
//     copy "20240315의 사본");
//   - the header cell (A1) reads like "7:30 PM - 결혼": the time is taken
//     from "h:mm AM|PM", the theme from the text after the first dash;
//   - the host cell (N2) names the host;
//   - every row from the second on is one attendee in twelve columns:
//     gender, nickname, name, phone, -, -, location, birth year, job,
//     type code, intro, signup route.
package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mmynk/toastmixer/internal/models"
	"github.com/mmynk/toastmixer/internal/validation"
)

// ErrNoSessionDate is returned for a sheet whose title has no YYYYMMDD date.
var ErrNoSessionDate = errors.New("sheet title has no session date")

// rowColumns is the number of columns an attendee row must have.
const rowColumns = 12

const copySuffix = "의 사본"

var (
	datePattern  = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`)
	timePattern  = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(AM|PM)`)
	themePattern = regexp.MustCompile(`-\s*(.+)$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// Sheet is one exported attendance sheet.
type Sheet struct {
	Title  string `json:"title"`
	Header string `json:"header"`
	Host   string `json:"host,omitempty"`

	// Rows are the attendee rows, header row excluded.
	Rows [][]string `json:"rows"`
}

// Parsed is a sheet translated into roster records.
type Parsed struct {
	Session      *models.Session
	Participants []*models.Participant

	// Skipped counts rows dropped for a missing name, a missing or
	// malformed birth year, too few columns, or invalid field values.
	Skipped int
}

// ParseSheet applies the sheet convention.
func ParseSheet(sheet Sheet) (*Parsed, error) {
	title := strings.TrimSpace(strings.ReplaceAll(sheet.Title, copySuffix, ""))
	m := datePattern.FindStringSubmatch(title)
	if m == nil {
		return nil, fmt.Errorf("%q: %w", sheet.Title, ErrNoSessionDate)
	}

	header := strings.TrimSpace(sheet.Header)
	host := strings.TrimSpace(sheet.Host)
	if host == "" {
		host = models.Undecided
	}

	session := &models.Session{
		Date:   m[1] + "-" + m[2] + "-" + m[3],
		Time:   parseTime(header),
		Theme:  parseTheme(header),
		Host:   host,
		Status: models.DefaultSessionStatus,
	}

	parsed := &Parsed{Session: session}
	for _, row := range sheet.Rows {
		p, ok := parseRow(row, session.Date)
		if !ok {
			parsed.Skipped++
			continue
		}
		parsed.Participants = append(parsed.Participants, p)
	}

	return parsed, nil
}

// parseTime converts "h:mm AM|PM" in the header to "HH:MM".
func parseTime(header string) string {
	m := timePattern.FindStringSubmatch(header)
	if m == nil {
		return models.Undecided
	}

	h, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	switch strings.ToUpper(m[3]) {
	case "PM":
		if h != 12 {
			h += 12
		}
	case "AM":
		if h == 12 {
			h = 0
		}
	}
	return fmt.Sprintf("%02d:%02d", h, minute)
}

func parseTheme(header string) string {
	if m := themePattern.FindStringSubmatch(header); m != nil {
		return strings.TrimSpace(m[1])
	}
	return header
}

func parseGender(s string) models.Gender {
	switch strings.ToUpper(s) {
	case "M", "남", "남자", "男":
		return models.GenderMale
	default:
		return models.GenderFemale
	}
}

// parseRow builds a participant from an attendee row, or reports false when
// the row must be skipped.
func parseRow(row []string, sessionDate string) (*models.Participant, bool) {
	if len(row) < rowColumns {
		return nil, false
	}

	vals := make([]string, rowColumns)
	for i := range vals {
		vals[i] = strings.TrimSpace(row[i])
	}

	name, birth := vals[2], vals[7]
	if name == "" || birth == "" || birth == "-" {
		return nil, false
	}
	year := nonDigits.ReplaceAllString(birth, "")
	if len(year) != 4 {
		return nil, false
	}

	p := &models.Participant{
		Name:           name,
		BirthDate:      year + "-01-01",
		Gender:         parseGender(vals[0]),
		Nickname:       vals[1],
		Phone:          nonDigits.ReplaceAllString(vals[3], ""),
		Location:       vals[6],
		Job:            vals[8],
		TypeCode:       vals[9],
		Intro:          vals[10],
		SignupRoute:    vals[11],
		FirstVisitDate: sessionDate,
	}
	if err := validation.ValidateStruct(p); err != nil {
		return nil, false
	}
	return p, true
}
