// Package leads derives lead qualification state from chat transcripts and maps
// it to the prompting strategy for the next bot reply.
package leads

import "strings"

// Role identifies who authored a transcript turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is a single transcript entry, ordered oldest to newest.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// IsUser reports whether the turn was written by the visitor.
func (t Turn) IsUser() bool {
	return Role(strings.ToLower(string(t.Role))) == RoleUser
}

// Stage is the lead's position in the qualification funnel.
type Stage string

const (
	StageInitial        Stage = "initial"
	StageQualifying     Stage = "qualifying"
	StageScheduling     Stage = "scheduling"
	StageCollectingInfo Stage = "collecting_info"
	StageReadyToBook    Stage = "ready_to_book"
)

var stageRank = map[Stage]int{
	StageInitial:        0,
	StageQualifying:     1,
	StageScheduling:     2,
	StageCollectingInfo: 3,
	StageReadyToBook:    4,
}

// Rank orders stages along the funnel. Unknown stages rank as initial.
func (s Stage) Rank() int {
	return stageRank[s]
}

// Advance returns the later of s and next. Stages never regress.
func (s Stage) Advance(next Stage) Stage {
	if next.Rank() > s.Rank() {
		return next
	}
	if s == "" {
		return StageInitial
	}
	return s
}

// Score bounds.
const (
	MaxLeadScore       = 100
	SignalScoreCeiling = 90
)

// Missing field names reported to the prompt and the booking bridge.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldDateTime = "date/time"
)

// LeadState is the lead snapshot derived from a transcript. It is recomputed on
// every turn and never stored on its own.
type LeadState struct {
	Name          string   `json:"name,omitempty"`
	Email         string   `json:"email,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	PreferredDate string   `json:"preferredDate,omitempty"`
	PreferredTime string   `json:"preferredTime,omitempty"`
	Interests     []string `json:"interests"`
	Stage         Stage    `json:"stage"`
	LeadScore     int      `json:"leadScore"`
}

// NewLeadState returns the empty snapshot every scan starts from.
func NewLeadState() LeadState {
	return LeadState{
		Interests: []string{},
		Stage:     StageInitial,
	}
}

// HasContact reports whether an email address or phone number is known.
func (s LeadState) HasContact() bool {
	return s.Email != "" || s.Phone != ""
}

// HasSchedule reports whether a preferred date or time is known.
func (s LeadState) HasSchedule() bool {
	return s.PreferredDate != "" || s.PreferredTime != ""
}

// CanBook reports whether everything needed for a booking request is present.
func (s LeadState) CanBook() bool {
	return s.Name != "" && s.Email != "" && s.HasSchedule()
}

// HasInterest reports whether keyword was recorded.
func (s LeadState) HasInterest(keyword string) bool {
	for _, interest := range s.Interests {
		if interest == keyword {
			return true
		}
	}
	return false
}

// MissingBookingFields lists which of name and email are absent.
func (s LeadState) MissingBookingFields() []string {
	var missing []string
	if s.Name == "" {
		missing = append(missing, FieldName)
	}
	if s.Email == "" {
		missing = append(missing, FieldEmail)
	}
	return missing
}

// MissingFields lists every field the bot should still ask for before a booking
// link is shared.
func (s LeadState) MissingFields() []string {
	missing := s.MissingBookingFields()
	if s.Phone == "" {
		missing = append(missing, FieldPhone)
	}
	if !s.HasSchedule() {
		missing = append(missing, FieldDateTime)
	}
	return missing
}

func (s *LeadState) addInterest(keyword string) {
	if !s.HasInterest(keyword) {
		s.Interests = append(s.Interests, keyword)
	}
}

// bumpScore adds delta, saturating at the signal ceiling, and never lowers the score.
func (s *LeadState) bumpScore(delta int) {
	next := s.LeadScore + delta
	if next > SignalScoreCeiling {
		next = SignalScoreCeiling
	}
	if next > s.LeadScore {
		s.LeadScore = next
	}
}
