package version

// Build metadata, stamped via -ldflags at release time.
var (
	version  = "dev"
	branch   = "unknown"
	revision = "unknown"
	date     = "unknown"
)

func Version() string {
	return version
}

func Branch() string {
	return branch
}

func Revision() string {
	return revision
}

func Date() string {
	return date
}
