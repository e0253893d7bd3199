package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleDesigner UserRole = "designer"
	UserRoleClient   UserRole = "client"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusClosed    UserStatus = "closed"
)

// User is either a designer competing for work or a client posting it.
// SubmissionCount is the designer's lifetime contest entry counter, bumped
// in the same transaction as each accepted submission.
type User struct {
	ID              uuid.UUID
	Email           string
	Name            string
	PasswordHash    string
	Role            UserRole
	Status          UserStatus
	SubmissionCount int64
	CreatedAt       time.Time
}
