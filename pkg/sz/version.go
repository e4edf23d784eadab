package sz

var (
	Version       = "v0.0.0-in-progress"
	NativeVersion = "unknown"
)

// WrapperVersion returns the semantic version populated at build time via
// ldflags. In development it defaults to v0.0.0-in-progress.
func WrapperVersion() string {
	return Version
}

// BuiltAgainst returns the native library version the wrapper was built and
// tested against, populated via ldflags. Product.Version reports the version
// actually loaded.
func BuiltAgainst() string {
	return NativeVersion
}
