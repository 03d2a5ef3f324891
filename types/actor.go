package types

// Actor is the verified caller identity supplied by the auth middleware.
// Services receive it explicitly on every operation and never read
// identity from ambient state.
type Actor struct {
	UserID      uint
	Username    string
	Permissions map[string]bool
}

// Can reports whether the actor holds the given permission. Holders of
// the "all" permission pass every check.
func (a Actor) Can(permission string) bool {
	if a.Permissions == nil {
		return false
	}
	return a.Permissions[permission] || a.Permissions["all"]
}
