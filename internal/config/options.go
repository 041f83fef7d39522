package config

// Options holds the settings of one CLI run, from flags and an optional
// .env file.
type Options struct {
	Host            string
	Port            int
	User            string
	HostFingerprint string // fingerprint, public key literal, or OFF
	PrivateKeyFile  string
	// Passphrase is runtime-only; prefer PassphraseSecretRef over storing it in a file.
	Passphrase          string // #nosec G117 -- runtime-only credential container for user input and secret resolution
	PassphraseSecretRef string
	EnvFile             string
	TimeoutSec          int
	KeepAliveSec        int
	LogLevel            string
}
