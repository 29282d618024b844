package models

import "time"

// RecommendationType distinguishes faculty-initiated recommendations from
// system-generated ones.
type RecommendationType string

const (
	RecommendationFaculty RecommendationType = "faculty"
	RecommendationAuto    RecommendationType = "auto"
)

// RecommendationStatus is the lifecycle state of a counseling recommendation.
type RecommendationStatus string

const (
	RecommendationPending   RecommendationStatus = "pending"
	RecommendationScheduled RecommendationStatus = "scheduled"
	RecommendationCompleted RecommendationStatus = "completed"
	RecommendationDeclined  RecommendationStatus = "declined"
)

// recommendationTransitions is the enforced state machine:
// pending may be scheduled, declined or completed; a scheduled consultation
// either completes or is declined; a declined recommendation re-opens to
// pending; completed is terminal.
var recommendationTransitions = map[RecommendationStatus][]RecommendationStatus{
	RecommendationPending:   {RecommendationScheduled, RecommendationDeclined, RecommendationCompleted},
	RecommendationScheduled: {RecommendationCompleted, RecommendationDeclined},
	RecommendationDeclined:  {RecommendationPending},
	RecommendationCompleted: {},
}

// Valid reports whether the status is a known recommendation state.
func (s RecommendationStatus) Valid() bool {
	_, ok := recommendationTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is a legal
// lifecycle transition.
func (s RecommendationStatus) CanTransitionTo(next RecommendationStatus) bool {
	for _, allowed := range recommendationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the state admits no further transitions.
func (s RecommendationStatus) Terminal() bool {
	return len(recommendationTransitions[s]) == 0
}

// Recommendation is a counseling referral for a student, created either by
// a faculty member or automatically after a low mood entry. FacultyID is
// null for auto recommendations; ConsultantID is set once a consultant
// schedules the session. CooldownUntil, when in the future, blocks new
// recommendations for the student.
type Recommendation struct {
	ID            string               `db:"id" json:"id"`
	StudentID     string               `db:"student_id" json:"student_id"`
	FacultyID     *string              `db:"faculty_id" json:"faculty_id,omitempty"`
	ConsultantID  *string              `db:"consultant_id" json:"consultant_id,omitempty"`
	Type          RecommendationType   `db:"recommendation_type" json:"recommendation_type"`
	Reason        string               `db:"reason" json:"reason"`
	Status        RecommendationStatus `db:"status" json:"status"`
	CooldownUntil *time.Time           `db:"cooldown_until" json:"cooldown_until,omitempty"`
	CreatedAt     time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `db:"updated_at" json:"updated_at"`
}

// InCooldown reports whether the recommendation currently blocks new
// referrals for its student.
func (r *Recommendation) InCooldown(now time.Time) bool {
	return r.CooldownUntil != nil && r.CooldownUntil.After(now)
}

// StatusDescription is the human-readable label shown on faculty listings.
func (s RecommendationStatus) StatusDescription() string {
	switch s {
	case RecommendationPending:
		return "Awaiting Assignment"
	case RecommendationScheduled:
		return "Consultation Scheduled"
	case RecommendationCompleted:
		return "Consultation Completed"
	case RecommendationDeclined:
		return "Student Declined"
	default:
		return string(s)
	}
}
