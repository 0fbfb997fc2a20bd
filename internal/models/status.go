package models

import "fmt"

// UserStatus is the onboarding step of a user.
type UserStatus string

const (
	StatusNew                     UserStatus = "new"
	StatusCollectingName          UserStatus = "collecting_name"
	StatusCollectingCategory      UserStatus = "collecting_category"
	StatusCollectingPaymentMethod UserStatus = "collecting_payment_method"
	StatusAwaitingProof           UserStatus = "awaiting_proof"
	StatusPendingVerification     UserStatus = "pending_verification"
	StatusVerified                UserStatus = "verified"
	StatusRejected                UserStatus = "rejected"
)

// UserEvent is an input to the onboarding state machine.
type UserEvent string

const (
	EventBeginRegistration UserEvent = "begin_registration"
	EventNameEntered       UserEvent = "name_entered"
	EventCategorySelected  UserEvent = "category_selected"
	EventMethodSelected    UserEvent = "method_selected"
	EventBackToMethod      UserEvent = "back_to_method"
	EventProofUploaded     UserEvent = "proof_uploaded"
	EventApproved          UserEvent = "approved"
	EventRejected          UserEvent = "rejected"
	EventStartOver         UserEvent = "start_over"
)

// userTransitions lists, per event, the allowed predecessor states and the resulting state.
// A rejected user is back in proof collection and may upload again.
// A name typed before tapping Register also starts registration.
var userTransitions = map[UserEvent]struct {
	from []UserStatus
	to   UserStatus
}{
	EventBeginRegistration: {from: []UserStatus{StatusNew}, to: StatusCollectingName},
	EventNameEntered:       {from: []UserStatus{StatusNew, StatusCollectingName}, to: StatusCollectingCategory},
	EventCategorySelected:  {from: []UserStatus{StatusCollectingCategory}, to: StatusCollectingPaymentMethod},
	EventMethodSelected: {
		from: []UserStatus{StatusCollectingPaymentMethod, StatusAwaitingProof, StatusRejected},
		to:   StatusAwaitingProof,
	},
	EventBackToMethod: {
		from: []UserStatus{StatusAwaitingProof, StatusRejected},
		to:   StatusCollectingPaymentMethod,
	},
	EventProofUploaded: {
		from: []UserStatus{StatusAwaitingProof, StatusRejected, StatusPendingVerification},
		to:   StatusPendingVerification,
	},
	EventApproved: {from: []UserStatus{StatusPendingVerification}, to: StatusVerified},
	EventRejected: {from: []UserStatus{StatusPendingVerification}, to: StatusRejected},
	EventStartOver: {
		from: []UserStatus{
			StatusNew, StatusCollectingName, StatusCollectingCategory,
			StatusCollectingPaymentMethod, StatusAwaitingProof, StatusRejected,
		},
		to: StatusCollectingName,
	},
}

// Apply returns the state reached by ev from s, or ErrInvalidTransition.
func (s UserStatus) Apply(ev UserEvent) (UserStatus, error) {
	t, ok := userTransitions[ev]
	if !ok {
		return s, fmt.Errorf("unknown event %q: %w", ev, ErrInvalidTransition)
	}
	for _, from := range t.from {
		if from == s {
			return t.to, nil
		}
	}
	return s, fmt.Errorf("%s from %s: %w", ev, s, ErrInvalidTransition)
}

// AcceptsProof reports whether an upload is expected in this state.
func (s UserStatus) AcceptsProof() bool {
	_, err := s.Apply(EventProofUploaded)
	return err == nil
}

// Label is the human readable form used in profiles and reports.
func (s UserStatus) Label() string {
	switch s {
	case StatusNew:
		return "Not registered"
	case StatusCollectingName, StatusCollectingCategory, StatusCollectingPaymentMethod:
		return "Registration in progress"
	case StatusAwaitingProof:
		return "Awaiting payment"
	case StatusPendingVerification:
		return "⏳ Pending verification"
	case StatusVerified:
		return "✅ Verified"
	case StatusRejected:
		return "❌ Rejected, please resubmit"
	}
	return string(s)
}
