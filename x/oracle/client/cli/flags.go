package cli

// Flag constants for oracle CLI commands
const (
	// Governance flags
	FlagAuthority = "authority"

	// Observation signing flags
	FlagOperatorKeyFile = "operator-key-file"

	// History query flags
	FlagLimit = "limit"
)
