package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleMember     Role = "member"
	RoleTrainer    Role = "trainer"
	RoleGymOwner   Role = "gym-owner"
	RoleSuperAdmin Role = "super-admin"
)

// Roles lists every role in display order.
var Roles = []Role{RoleMember, RoleTrainer, RoleGymOwner, RoleSuperAdmin}

var roleAliases = map[string]Role{
	"member":             RoleMember,
	"trainer":            RoleTrainer,
	"gym-owner":          RoleGymOwner,
	"gymowner":           RoleGymOwner,
	"gym owner":          RoleGymOwner,
	"organization-owner": RoleGymOwner,
	"super-admin":        RoleSuperAdmin,
	"superadmin":         RoleSuperAdmin,
	"super admin":        RoleSuperAdmin,
}

// ParseRole accepts the canonical role names as well as the camel-case and
// display forms older clients send ("gymOwner", "Super Admin").
func ParseRole(raw string) (Role, bool) {
	role, ok := roleAliases[strings.ToLower(strings.TrimSpace(raw))]
	return role, ok
}

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleTrainer, RoleGymOwner, RoleSuperAdmin:
		return true
	}
	return false
}

// NeedsApproval reports whether accounts of this role start out pending.
func (r Role) NeedsApproval() bool {
	return r == RoleGymOwner
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, true
	case StatusApproved:
		return StatusApproved, true
	case StatusRejected:
		return StatusRejected, true
	}
	return "", false
}

// Terminal reports whether no further review transition is possible.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Account struct {
	ID               string
	Email            string
	PasswordHash     []byte
	Name             string
	OrganizationName string
	PhoneNumber      string
	Address          string
	Description      string
	AvatarKey        *string
	Role             Role
	Status           Status
	ReviewedBy       *string
	ReviewedAt       *time.Time
	RejectionReason  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// InitialStatus is the status a freshly registered account of the given role gets.
func InitialStatus(role Role) Status {
	if role.NeedsApproval() {
		return StatusPending
	}
	return StatusApproved
}

// Profile holds the fields an account holder may edit. Nil fields are left unchanged.
type Profile struct {
	Name             *string
	OrganizationName *string
	PhoneNumber      *string
	Address          *string
	Description      *string
}

func (p Profile) Empty() bool {
	return p.Name == nil && p.OrganizationName == nil && p.PhoneNumber == nil &&
		p.Address == nil && p.Description == nil
}

// StatusChange describes a guarded review transition.
type StatusChange struct {
	From       Status
	To         Status
	ReviewerID string
	Reason     string
}

type StatusCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}
