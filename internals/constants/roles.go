package constants

import "strings"

// Role pengguna (dibaca dari klaim JWT "role").
const (
	RoleStaff         = "STAFF"
	RoleFinance       = "FINANCE"
	RoleAdmin         = "ADMIN"
	RolePlatformAdmin = "PLATFORM_ADMIN"
)

// Scope = himpunan user yang boleh dilihat sebuah role.
type Scope string

const (
	ScopeSelf Scope = "self"
	ScopeAll  Scope = "all"
)

// RoleScopes: satu-satunya tabel otorisasi untuk query & export attendance.
// Role yang tidak ada di sini → Forbidden.
var RoleScopes = map[string]Scope{
	RoleStaff:         ScopeSelf,
	RoleFinance:       ScopeSelf,
	RoleAdmin:         ScopeAll,
	RolePlatformAdmin: ScopeAll,
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	AdminRoles = []string{
		RoleAdmin,
		RolePlatformAdmin,
	}
)

// NormalizeRole: "admin" / " Admin " → "ADMIN".
func NormalizeRole(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}

// ScopeOf mengembalikan scope role; ok=false kalau role tidak dikenal.
func ScopeOf(role string) (Scope, bool) {
	s, ok := RoleScopes[NormalizeRole(role)]
	return s, ok
}

// Template pesan error role
const ErrOnlyAdminsCanAccess = "Hanya admin yang boleh mengakses fitur %s."
