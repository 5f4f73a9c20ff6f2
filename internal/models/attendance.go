package models

// Attendance links one participant to one session.
// At most one row exists per (participant, session) pair.
type Attendance struct {
	ID            int64
	Participant   ParticipantKey
	SessionID     int64
	Attended      bool
	PaymentStatus string
}

// SessionAttendee is a participant as seen from one session's attendee list.
type SessionAttendee struct {
	Participant

	AttendanceID  int64  `json:"attendanceId"`
	PaymentStatus string `json:"paymentStatus,omitempty"`
}

// AttendanceRecord is one row of attendance history joined to its session date.
type AttendanceRecord struct {
	Participant ParticipantKey
	SessionID   int64
	SessionDate string
}

// VisitStats summarizes a participant's attendance.
type VisitStats struct {
	Count int

	// LastVisit is the most recent session date, empty if Count is 0.
	LastVisit string
}
