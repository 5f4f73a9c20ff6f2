package models

// DuplicatePair is two attendees of the same session who already met at
// another session.
//
// Person1 always orders before Person2 by (name, birth date).
type DuplicatePair struct {
	Person1      string `json:"person1"`
	Person1Birth string `json:"person1Birth"`
	Person2      string `json:"person2"`
	Person2Birth string `json:"person2Birth"`

	// SharedDates are the distinct dates of the shared sessions, ascending.
	SharedDates []string `json:"sharedDates"`
}

// Candidate is a recommended participant annotated with visit statistics.
type Candidate struct {
	Participant

	VisitCount int    `json:"visitCount"`
	LastVisit  string `json:"lastVisit,omitempty"`
}

// MetPerson is someone a participant shared a session with.
type MetPerson struct {
	Name   string `json:"name"`
	Gender Gender `json:"gender"`
}

// Visit is one session in a participant's history.
type Visit struct {
	SessionID   int64       `json:"sessionId"`
	SessionDate string      `json:"sessionDate"`
	SessionTime string      `json:"sessionTime,omitempty"`
	Theme       string      `json:"theme,omitempty"`
	MetPeople   []MetPerson `json:"metPeople"`
}

// ParticipantDetail is a participant with their full visit history, newest first.
type ParticipantDetail struct {
	Participant

	VisitHistory []Visit `json:"visitHistory"`
	VisitCount   int     `json:"visitCount"`
}
