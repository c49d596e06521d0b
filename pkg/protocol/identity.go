package protocol

import (
	"context"
	"errors"

	"github.com/docket-io/docket/pkg/models"
)

// ErrUserNotFound is returned when the identity port cannot resolve a user.
var ErrUserNotFound = errors.New("user not found")

// UserProfile is what the identity port resolves a user id to.
type UserProfile struct {
	UserID          string
	Role            models.Role
	Specializations []string

	// ActiveTaskCount feeds workload pressure scoring.
	ActiveTaskCount int

	// AvailableHoursPerWeek feeds capacity utilization; zero means the
	// default working week applies.
	AvailableHoursPerWeek float64
}

// IdentityService resolves users for workload and priority scoring.
type IdentityService interface {
	ResolveUser(ctx context.Context, userID string) (*UserProfile, error)
}
