package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	appconfig "simples-sftp/internal/config"
	"simples-sftp/providers"
	"simples-sftp/sftpclient"
)

var resolvePassphraseFromSecretRef = func(ctx context.Context, secretRef string) (string, error) {
	return providers.ResolveSecretReference(ctx, secretRef, providers.DefaultProviders())
}

var (
	isTerminalForPassphrasePrompt = func() bool { return isTerminal(os.Stdin) }
	readPassphraseForPrompt       = func() ([]byte, error) { return readPassword(os.Stdin) }
)

// loadKeyPair loads the configured key pair. The passphrase comes from
// PRIVATE_KEY_PASSPHRASE, then a secret reference, then an interactive
// prompt when the key turns out to be encrypted.
func loadKeyPair(ctx context.Context, programOptions *appconfig.Options) (sftpclient.KeyPair, error) {
	passphrase := programOptions.Passphrase
	if passphrase == "" && programOptions.PassphraseSecretRef != "" {
		resolved, err := resolvePassphraseFromSecretRef(ctx, programOptions.PassphraseSecretRef)
		if err != nil {
			return sftpclient.KeyPair{}, fmt.Errorf("resolve passphrase secret reference: %w", err)
		}
		passphrase = resolved
	}

	keyPair, err := sftpclient.LoadKeyPair(programOptions.PrivateKeyFile, []byte(passphrase))
	if err == nil || !sftpclient.IsPassphraseMissing(err) {
		return keyPair, err
	}
	if !isTerminalForPassphrasePrompt() {
		return sftpclient.KeyPair{}, fmt.Errorf("%w (set PRIVATE_KEY_PASSPHRASE or PRIVATE_KEY_PASSPHRASE_SECRET_REF)", err)
	}

	outputPrintf("Passphrase for %s: ", programOptions.PrivateKeyFile)
	prompted, promptErr := readPassphraseForPrompt()
	outputPrintln()
	if promptErr != nil {
		return sftpclient.KeyPair{}, fmt.Errorf("read passphrase: %w", promptErr)
	}
	if len(prompted) == 0 {
		return sftpclient.KeyPair{}, errors.New("passphrase is required for encrypted private key")
	}
	return sftpclient.LoadKeyPair(programOptions.PrivateKeyFile, prompted)
}
