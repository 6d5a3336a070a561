package db

// New installs s as the package-level Store. Tests and callers that build
// their own Store use this instead of InitDB.
func New(s Store) {
	store = s
}

// DefaultStore returns the package-level Store, or nil before InitDB.
func DefaultStore() Store {
	return store
}
