// Package authz provides role-based capability checks for the Kainan API.
// It centralizes permission decisions so handlers and services do not
// compare role strings inline.
package authz

// Role names recognized by the API.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleOwner     = "owner"
	RoleAdmin     = "admin"
)

// Requester identifies the authenticated caller of an operation.
// It is supplied by the auth middleware; services trust it and do not
// re-derive identity.
type Requester struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Action is a named operation subject to a permission check.
type Action string

// Actions checked by the core services.
const (
	// ActionRatingDelete is deleting a rating entry.
	ActionRatingDelete Action = "rating.delete"
	// ActionCurationAssign is assigning or clearing curation rank fields.
	ActionCurationAssign Action = "curation.assign"
	// ActionEntityWrite is creating or editing dishes and restaurants.
	ActionEntityWrite Action = "entity.write"
	// ActionAuditRead is reading the curation audit log.
	ActionAuditRead Action = "audit.read"
)

// elevatedRoles are roles that can act on resources they do not own.
var elevatedRoles = map[string]bool{
	RoleModerator: true,
	RoleOwner:     true,
	RoleAdmin:     true,
}

// curatorRoles are roles permitted to mutate curation overlay fields.
var curatorRoles = map[string]bool{
	RoleOwner: true,
	RoleAdmin: true,
}

// Resource describes the target of an action for ownership checks.
// AuthorID is empty for resources without an owning user.
type Resource struct {
	AuthorID string
}

// Can reports whether the requester may perform the action on the resource.
//
// Rules:
//   - rating.delete: the entry's author, or any elevated role.
//   - curation.assign: admin or owner only.
//   - entity.write: admin or owner only.
//   - audit.read: admin only.
func Can(requester Requester, action Action, resource Resource) bool {
	switch action {
	case ActionRatingDelete:
		if resource.AuthorID != "" && requester.ID == resource.AuthorID {
			return true
		}
		return elevatedRoles[requester.Role]
	case ActionCurationAssign, ActionEntityWrite:
		return curatorRoles[requester.Role]
	case ActionAuditRead:
		return requester.Role == RoleAdmin
	default:
		return false
	}
}

// IsElevated reports whether the role may act on resources owned by other users.
func IsElevated(role string) bool {
	return elevatedRoles[role]
}
