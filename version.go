package vcppbridge

// Bridge version information.
const (
	// Version is the bridge release.
	Version = "0.3.0"

	// ABIVersion is the entry point signature revision the bridge speaks.
	// Revision 1 added the options_json argument to every entry point.
	ABIVersion = 1

	// SourceURL is the repository URL for the vcpp core sources.
	SourceURL = "https://github.com/aperturerobotics/vcpp-core"
)
