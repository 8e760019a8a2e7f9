package authz

import "testing"

// TestCanRatingDelete tests the ownership and role rules for rating deletion.
func TestCanRatingDelete(t *testing.T) {
	tests := []struct {
		name      string
		requester Requester
		resource  Resource
		expected  bool
	}{
		{
			name:      "author can delete own rating",
			requester: Requester{ID: "user-1", Role: RoleUser},
			resource:  Resource{AuthorID: "user-1"},
			expected:  true,
		},
		{
			name:      "other user cannot delete",
			requester: Requester{ID: "user-2", Role: RoleUser},
			resource:  Resource{AuthorID: "user-1"},
			expected:  false,
		},
		{
			name:      "moderator can delete any rating",
			requester: Requester{ID: "mod-1", Role: RoleModerator},
			resource:  Resource{AuthorID: "user-1"},
			expected:  true,
		},
		{
			name:      "admin can delete any rating",
			requester: Requester{ID: "admin-1", Role: RoleAdmin},
			resource:  Resource{AuthorID: "user-1"},
			expected:  true,
		},
		{
			name:      "owner can delete any rating",
			requester: Requester{ID: "owner-1", Role: RoleOwner},
			resource:  Resource{AuthorID: "user-1"},
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Can(tt.requester, ActionRatingDelete, tt.resource); got != tt.expected {
				t.Errorf("Can() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestCanCurationAssign tests that only admin and owner roles may curate.
func TestCanCurationAssign(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		expected bool
	}{
		{name: "admin allowed", role: RoleAdmin, expected: true},
		{name: "owner allowed", role: RoleOwner, expected: true},
		{name: "moderator denied", role: RoleModerator, expected: false},
		{name: "user denied", role: RoleUser, expected: false},
		{name: "unknown role denied", role: "superuser", expected: false},
		{name: "empty role denied", role: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Requester{ID: "u-1", Role: tt.role}
			if got := Can(req, ActionCurationAssign, Resource{}); got != tt.expected {
				t.Errorf("Can() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestCanUnknownAction tests that unrecognized actions are always denied.
func TestCanUnknownAction(t *testing.T) {
	req := Requester{ID: "admin-1", Role: RoleAdmin}
	if Can(req, Action("bogus.action"), Resource{}) {
		t.Error("expected unknown action to be denied even for admin")
	}
}

// TestCanAuditRead tests that only admins may read the audit log.
func TestCanAuditRead(t *testing.T) {
	if !Can(Requester{ID: "a", Role: RoleAdmin}, ActionAuditRead, Resource{}) {
		t.Error("expected admin to read audit log")
	}
	if Can(Requester{ID: "o", Role: RoleOwner}, ActionAuditRead, Resource{}) {
		t.Error("expected owner to be denied audit log access")
	}
}

// TestIsElevated tests the elevated role classification.
func TestIsElevated(t *testing.T) {
	for role, want := range map[string]bool{
		RoleUser:      false,
		RoleModerator: true,
		RoleOwner:     true,
		RoleAdmin:     true,
		"":            false,
	} {
		if got := IsElevated(role); got != want {
			t.Errorf("IsElevated(%q) = %v, want %v", role, got, want)
		}
	}
}
