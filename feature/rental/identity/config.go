package identity

// Config holds the tag table sources.
type Config struct {
	// Tags is a semicolon separated list of TAG=account pairs.
	// Example: "0x23 0x24 0x24 0xC6=2@bssm.hs.kr;0x11 0x22 0x33 0x44=5@bssm.hs.kr"
	Tags string `mapstructure:"tags"`
	// LegacyPattern is the single tag recognised by the first station firmware.
	LegacyPattern string `mapstructure:"legacy_pattern" default:"0x23 0x24 0x24 0xC6"`
	// LegacyAccount is the account the legacy pattern resolves to.
	LegacyAccount string `mapstructure:"legacy_account" default:"2@bssm.hs.kr"`
}
