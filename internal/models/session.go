package models

const (
	// DefaultSessionStatus is the status of a freshly created session ("preparing").
	DefaultSessionStatus = "준비중"

	// Undecided fills time and host labels the source did not provide.
	Undecided = "미정"

	// CustomTheme is the theme choice that asks for free text instead.
	CustomTheme = "기타"
)

// Themes is the fixed set of session themes offered when creating a session.
var Themes = []string{
	"운동 좋아하는 사람들",
	"MBTI I들의 모임",
	"MBTI E들의 모임",
	"결혼",
	CustomTheme,
}

// Session is a single occurrence of the meetup.
type Session struct {
	// ID is assigned by the store.
	ID int64 `json:"id"`

	// Date is the calendar date, "YYYY-MM-DD".
	Date string `json:"date" validate:"required,datetime=2006-01-02"`

	// Time is a free-text time-of-day label, usually "HH:MM".
	Time string `json:"time,omitempty" validate:"max=32"`

	Theme  string `json:"theme,omitempty" validate:"max=200"`
	Host   string `json:"host,omitempty" validate:"max=100"`
	Status string `json:"status,omitempty" validate:"max=50"`
}

// ResolveTheme returns the theme to store for a theme choice. Choosing
// CustomTheme stores the custom text instead.
func ResolveTheme(choice, custom string) string {
	if choice == CustomTheme {
		return custom
	}
	return choice
}
