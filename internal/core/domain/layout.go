package domain

const (
	// MoltFileName is the name of the project configuration file.
	MoltFileName = "molt.yaml"

	// DefaultAddr is the address the development server binds by default.
	DefaultAddr = "127.0.0.1:8080"

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750
)
