// Package models defines the core domain models for the toast roster.
//
// # Identity
//
// Participants have no surrogate ID. A person is identified by the pair
// (Name, BirthDate), captured by ParticipantKey. BirthDate is a birth-year
// proxy date ("1992-01-01"); only its four-digit year prefix carries meaning
// for filtering.
//
// Sessions and Attendance rows carry store-assigned integer IDs.
//
// # Design Principles
//
//  1. **Natural keys**: the (name, birth date) pair is the primary key so that
//     re-importing the same roster is idempotent
//  2. **No pointers between aggregates**: attendance references participants by
//     key and sessions by ID
//  3. **Read models live here too**: Candidate, DuplicatePair and
//     ParticipantDetail are what the matching engine and the detail view return
package models
