package build

var (
	Name    = "notes"
	Version = "v0.0.1+dev"
)
