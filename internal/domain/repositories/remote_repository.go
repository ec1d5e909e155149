package repositories

// RemoteRepository reads remote configuration from local clones.
type RemoteRepository interface {
	// OriginURL returns the first URL of the "origin" remote of the clone
	// containing dir.
	OriginURL(dir string) (string, error)
}
