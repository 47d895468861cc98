package auth

import (
	"slices"
	"strings"
)

// Role is a member's trustee role. The zero value is RoleNone.
type Role string

// Trustee roles.
const (
	RoleNone           Role = ""
	RolePresident      Role = "president"
	RoleVicePresident  Role = "vice_president"
	RoleITTeam         Role = "it_team"
	RoleSecretary      Role = "secretary"
	RoleJointSecretary Role = "joint_secretary"
	RoleTreasurer      Role = "treasurer"
	RoleJointTreasurer Role = "joint_treasurer"
	RoleTrustee        Role = "trustee"
	RoleGeneralTrustee Role = "general_trustee"
	RoleVolunteer      Role = "volunteer"
)

var knownRoles = []Role{
	RolePresident, RoleVicePresident, RoleITTeam,
	RoleSecretary, RoleJointSecretary, RoleTreasurer, RoleJointTreasurer, RoleTrustee,
	RoleGeneralTrustee, RoleVolunteer,
}

// ParseRole normalizes s ("Vice President", "vice-president", " IT_TEAM ")
// into a Role. Unknown or empty values yield RoleNone.
func ParseRole(s string) Role {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
	r := Role(s)
	if slices.Contains(knownRoles, r) {
		return r
	}
	return RoleNone
}

// RoleFromPtr parses a nullable role column.
func RoleFromPtr(s *string) Role {
	if s == nil {
		return RoleNone
	}
	return ParseRole(*s)
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return slices.Contains(knownRoles, r)
}

func (r Role) elevated() bool {
	return r == RolePresident || r == RoleVicePresident || r == RoleITTeam
}

func (r Role) restricted() bool {
	return r == RoleVolunteer || r == RoleGeneralTrustee
}

// Permission is "<area>.<verb>", e.g. "donations.view".
type Permission string

// Areas guarded by the API.
const (
	AreaMembers    = "members"
	AreaDonations  = "donations"
	AreaExpenses   = "expenses"
	AreaActivities = "activities"
	AreaMeetings   = "meetings"
	AreaWorkshops  = "workshops"
	AreaLinks      = "links"
	AreaAudit      = "audit"
	AreaSettings   = "settings"
)

// Verbs.
const (
	VerbView   = "view"
	VerbCreate = "create"
	VerbEdit   = "edit"
	VerbDelete = "delete"
)

// Perm builds a permission from an area and a verb.
func Perm(area, verb string) Permission {
	return Permission(area + "." + verb)
}

// Area returns the namespace of p.
func (p Permission) Area() string {
	area, _, _ := strings.Cut(string(p), ".")
	return area
}

// restrictedAllow is everything the restricted roles may do.
var restrictedAllow = []Permission{
	Perm(AreaDonations, VerbView),
	Perm(AreaExpenses, VerbView),
	Perm(AreaActivities, VerbView),
}

// HasPermission is the single permission gate used by routes and reported to
// the UI. Elevated roles may do everything, restricted roles only a fixed
// view list, other roles everything outside settings, and no role nothing.
func HasPermission(role Role, p Permission) bool {
	switch {
	case role == RoleNone || !role.Valid():
		return false
	case role.elevated():
		return true
	case role.restricted():
		return slices.Contains(restrictedAllow, p)
	default:
		return p.Area() != AreaSettings
	}
}

// AllPermissions lists every permission the API knows about.
func AllPermissions() []Permission {
	areas := []string{
		AreaMembers, AreaDonations, AreaExpenses, AreaActivities,
		AreaMeetings, AreaWorkshops, AreaLinks, AreaAudit, AreaSettings,
	}
	verbs := []string{VerbView, VerbCreate, VerbEdit, VerbDelete}
	out := make([]Permission, 0, len(areas)*len(verbs))
	for _, a := range areas {
		for _, v := range verbs {
			out = append(out, Perm(a, v))
		}
	}
	return out
}

// Permissions returns the subset of AllPermissions granted to role.
func Permissions(role Role) []Permission {
	var out []Permission
	for _, p := range AllPermissions() {
		if HasPermission(role, p) {
			out = append(out, p)
		}
	}
	return out
}
