package policy

// Ownable is an interface for resources that have an owner.
// Implement this on models to enable ownership-based authorization.
type Ownable interface {
	GetUserID() uint
}

// Owns reports whether the user owns the resource. A nil resource is denied:
// callers must have loaded the record before asking, which prevents accidental
// access to resources without an ownership check.
func Owns(userID uint, resource Ownable) bool {
	if resource == nil || userID == 0 {
		return false
	}
	return resource.GetUserID() == userID
}
