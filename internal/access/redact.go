// Package access implements field-level visibility as a pure function.
// Handlers call Redact per field instead of wrapping resolvers or
// serializers; the decision is just a comparison of levels.
package access

// Level is a requester's or field's access level.
type Level int

const (
	// LevelPublic marks fields anyone may read.
	LevelPublic Level = iota
	// LevelMember marks fields visible to the subject themselves and
	// to plan members they share a plan with.
	LevelMember
	// LevelAdmin marks fields visible to administrators only.
	LevelAdmin
)

// LevelForRole maps a stored user role to an access level.
func LevelForRole(role string) Level {
	if role == "admin" {
		return LevelAdmin
	}
	return LevelMember
}

// Allowed reports whether actual clears required.
func Allowed(required, actual Level) bool {
	return actual >= required
}

// Redact returns value when actual clears required, and nil otherwise.
// The nil placeholder serializes as JSON null, matching the restricted
// fields being declared nullable.
func Redact[T any](value T, required, actual Level) *T {
	if !Allowed(required, actual) {
		return nil
	}
	return &value
}
