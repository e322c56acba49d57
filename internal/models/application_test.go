// internal/models/application_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplicationCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    ApplicationStatus
		to      ApplicationStatus
		allowed bool
	}{
		{ApplicationStatusSubmitted, ApplicationStatusShortlisted, true},
		{ApplicationStatusSubmitted, ApplicationStatusRejected, true},
		{ApplicationStatusSubmitted, ApplicationStatusAccepted, false},
		{ApplicationStatusShortlisted, ApplicationStatusAccepted, true},
		{ApplicationStatusShortlisted, ApplicationStatusRejected, true},
		{ApplicationStatusShortlisted, ApplicationStatusSubmitted, false},
		{ApplicationStatusAccepted, ApplicationStatusRejected, false},
		{ApplicationStatusAccepted, ApplicationStatusShortlisted, false},
		{ApplicationStatusRejected, ApplicationStatusShortlisted, false},
		{ApplicationStatusRejected, ApplicationStatusAccepted, false},
	}

	for _, tt := range tests {
		app := Application{Status: tt.from}
		assert.Equal(t, tt.allowed, app.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestApplicationIsTerminal(t *testing.T) {
	assert.False(t, (&Application{Status: ApplicationStatusSubmitted}).IsTerminal())
	assert.False(t, (&Application{Status: ApplicationStatusShortlisted}).IsTerminal())
	assert.True(t, (&Application{Status: ApplicationStatusAccepted}).IsTerminal())
	assert.True(t, (&Application{Status: ApplicationStatusRejected}).IsTerminal())
}

func TestUserIsEligibleTutor(t *testing.T) {
	eligible := User{
		UserType:          UserTypeTutor,
		Status:            UserStatusActive,
		VerificationLevel: VerificationLevelVerified,
	}
	assert.True(t, eligible.IsEligibleTutor())

	student := eligible
	student.UserType = UserTypeStudent
	assert.False(t, student.IsEligibleTutor())

	suspended := eligible
	suspended.Status = UserStatusSuspended
	assert.False(t, suspended.IsEligibleTutor())

	unverified := eligible
	unverified.VerificationLevel = VerificationLevelUnverified
	assert.False(t, unverified.IsEligibleTutor())
}

func TestTuitionPostIsOpen(t *testing.T) {
	assert.True(t, (&TuitionPost{Status: PostStatusOpen}).IsOpen())
	assert.False(t, (&TuitionPost{Status: PostStatusClosed}).IsOpen())
	assert.False(t, (&TuitionPost{Status: PostStatusFulfilled}).IsOpen())
}
