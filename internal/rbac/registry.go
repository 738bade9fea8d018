// Package rbac holds the static role tables: which permissions each role has
// and which UI path prefixes each role may open.
package rbac

import (
	"slices"
	"strings"

	"gymsync/internal/models"
)

// Wildcard grants every permission.
const Wildcard = "all"

const (
	PermViewOwnProfile       = "view_own_profile"
	PermEditOwnProfile       = "edit_own_profile"
	PermViewOwnWorkouts      = "view_own_workouts"
	PermViewOwnMembership    = "view_own_membership"
	PermScheduleAppointments = "schedule_appointments"
	PermViewOwnProgress      = "view_own_progress"
	PermViewClients          = "view_clients"
	PermCreateWorkouts       = "create_workouts"
	PermEditWorkouts         = "edit_workouts"
	PermViewAppointments     = "view_appointments"
	PermManageAppointments   = "manage_appointments"
	PermManageTrainers       = "manage_trainers"
	PermManageMembers        = "manage_members"
	PermViewAnalytics        = "view_analytics"
	PermManageMemberships    = "manage_memberships"
	PermManageGymSettings    = "manage_gym_settings"
	PermReviewApplications   = "review_applications"
)

// Table is the input to New. It is copied, so later changes to it are not seen.
type Table struct {
	Permissions map[models.Role][]string
	Paths       map[models.Role][]string
	Protected   []string
}

type Registry struct {
	permissions map[models.Role]map[string]struct{}
	ordered     map[models.Role][]string
	paths       map[models.Role][]string
	protected   []string
}

func New(table Table) *Registry {
	r := &Registry{
		permissions: make(map[models.Role]map[string]struct{}, len(table.Permissions)),
		ordered:     make(map[models.Role][]string, len(table.Permissions)),
		paths:       make(map[models.Role][]string, len(table.Paths)),
		protected:   slices.Clone(table.Protected),
	}
	for role, perms := range table.Permissions {
		set := make(map[string]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		r.permissions[role] = set
		r.ordered[role] = slices.Clone(perms)
	}
	for role, prefixes := range table.Paths {
		r.paths[role] = slices.Clone(prefixes)
	}
	return r
}

// Default returns the registry the service runs with.
func Default() *Registry {
	return New(Table{
		Permissions: map[models.Role][]string{
			models.RoleMember: {
				PermViewOwnProfile,
				PermEditOwnProfile,
				PermViewOwnWorkouts,
				PermViewOwnMembership,
				PermScheduleAppointments,
				PermViewOwnProgress,
			},
			models.RoleTrainer: {
				PermViewOwnProfile,
				PermEditOwnProfile,
				PermViewClients,
				PermCreateWorkouts,
				PermEditWorkouts,
				PermViewAppointments,
				PermManageAppointments,
			},
			models.RoleGymOwner: {
				PermViewOwnProfile,
				PermEditOwnProfile,
				PermManageTrainers,
				PermManageMembers,
				PermViewAnalytics,
				PermManageMemberships,
				PermManageGymSettings,
			},
			models.RoleSuperAdmin: {Wildcard},
		},
		Paths: map[models.Role][]string{
			models.RoleMember:     {"/dashboard/member", "/member/dashboard"},
			models.RoleTrainer:    {"/dashboard/trainer", "/trainer/dashboard"},
			models.RoleGymOwner:   {"/dashboard/gym-owner", "/gym-owner/dashboard"},
			models.RoleSuperAdmin: {"/dashboard/super-admin", "/admin/dashboard"},
		},
		Protected: []string{"/member", "/trainer", "/gym-owner", "/admin", "/dashboard"},
	})
}

func (r *Registry) HasPermission(role models.Role, permission string) bool {
	set, ok := r.permissions[role]
	if !ok {
		return false
	}
	if _, ok := set[Wildcard]; ok {
		return true
	}
	_, ok = set[permission]
	return ok
}

func (r *Registry) HasRole(userRole models.Role, required ...models.Role) bool {
	return slices.Contains(required, userRole)
}

func (r *Registry) Permissions(role models.Role) []string {
	return slices.Clone(r.ordered[role])
}

func (r *Registry) AllowedPaths(role models.Role) []string {
	return slices.Clone(r.paths[role])
}

// HomePath is the first allowed prefix of role, or "" when it has none.
func (r *Registry) HomePath(role models.Role) string {
	if prefixes := r.paths[role]; len(prefixes) > 0 {
		return prefixes[0]
	}
	return ""
}

func (r *Registry) PathAllowed(role models.Role, path string) bool {
	return matchesAny(r.paths[role], path)
}

func (r *Registry) Protected(path string) bool {
	return matchesAny(r.protected, path)
}

// matchesAny is a segment-aware prefix match: "/dashboard/member" matches
// "/dashboard/member" and "/dashboard/member/x" but not "/dashboard/members".
func matchesAny(prefixes []string, path string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}
