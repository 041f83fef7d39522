package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	appconfig "simples-sftp/internal/config"
)

func stubSecretResolver(t *testing.T, value string, err error) *[]string {
	t.Helper()

	original := resolvePassphraseFromSecretRef
	var refs []string
	resolvePassphraseFromSecretRef = func(_ context.Context, secretRef string) (string, error) {
		refs = append(refs, secretRef)
		return value, err
	}
	t.Cleanup(func() { resolvePassphraseFromSecretRef = original })
	return &refs
}

func TestLoadKeyPairUnencryptedSkipsPrompt(t *testing.T) {
	keyPath := writeClientKey(t, t.TempDir(), "")
	prompts := stubPassphrasePrompt(t, true, "unused", nil)
	refs := stubSecretResolver(t, "", errors.New("must not be called"))

	keyPair, err := loadKeyPair(context.Background(), &appconfig.Options{PrivateKeyFile: keyPath})
	if err != nil {
		t.Fatalf("loadKeyPair() error = %v", err)
	}
	if keyPair.PublicKey() == nil {
		t.Fatalf("loadKeyPair() returned an empty key pair")
	}
	if *prompts != 0 || len(*refs) != 0 {
		t.Fatalf("prompts = %d, resolver calls = %v, want none", *prompts, *refs)
	}
}

func TestLoadKeyPairUsesConfiguredPassphrase(t *testing.T) {
	keyPath := writeClientKey(t, t.TempDir(), "s3cret")
	prompts := stubPassphrasePrompt(t, true, "wrong", nil)

	if _, err := loadKeyPair(context.Background(), &appconfig.Options{PrivateKeyFile: keyPath, Passphrase: "s3cret"}); err != nil {
		t.Fatalf("loadKeyPair() error = %v", err)
	}
	if *prompts != 0 {
		t.Fatalf("prompted %d times, want 0", *prompts)
	}
}

func TestLoadKeyPairResolvesSecretReference(t *testing.T) {
	keyPath := writeClientKey(t, t.TempDir(), "from-vault")
	stubPassphrasePrompt(t, false, "", nil)
	refs := stubSecretResolver(t, "from-vault", nil)

	_, err := loadKeyPair(context.Background(), &appconfig.Options{PrivateKeyFile: keyPath, PassphraseSecretRef: "bw://batch-key"})
	if err != nil {
		t.Fatalf("loadKeyPair() error = %v", err)
	}
	if len(*refs) != 1 || (*refs)[0] != "bw://batch-key" {
		t.Fatalf("resolver calls = %v, want [bw://batch-key]", *refs)
	}
}

func TestLoadKeyPairSecretReferenceError(t *testing.T) {
	keyPath := writeClientKey(t, t.TempDir(), "from-vault")
	stubSecretResolver(t, "", errors.New("vault sealed"))

	_, err := loadKeyPair(context.Background(), &appconfig.Options{PrivateKeyFile: keyPath, PassphraseSecretRef: "bw://batch-key"})
	if err == nil || !strings.Contains(err.Error(), "resolve passphrase secret reference: vault sealed") {
		t.Fatalf("loadKeyPair() error = %v", err)
	}
}

func TestLoadKeyPairPromptsForEncryptedKey(t *testing.T) {
	keyPath := writeClientKey(t, t.TempDir(), "typed")
	prompts := stubPassphrasePrompt(t, true, "typed", nil)
	_, stderr := captureWriters(t)

	if _, err := loadKeyPair(context.Background(), &appconfig.Options{PrivateKeyFile: keyPath}); err != nil {
		t.Fatalf("loadKeyPair() error = %v", err)
	}
	if *prompts != 1 {
		t.Fatalf("prompted %d times, want 1", *prompts)
	}
	if !strings.Contains(stderr.String(), "Passphrase for "+keyPath+": ") {
		t.Fatalf("stderr = %q, want passphrase prompt", stderr.String())
	}
}

func TestLoadKeyPairPromptFailures(t *testing.T) {
	cases := []struct {
		name       string
		terminal   bool
		passphrase string
		readErr    error
		wantText   string
	}{
		{"notTerminal", false, "", nil, "set PRIVATE_KEY_PASSPHRASE"},
		{"readError", true, "", errors.New("tty gone"), "read passphrase: tty gone"},
		{"emptyAnswer", true, "", nil, "passphrase is required"},
		{"wrongAnswer", true, "nope", nil, "parse private key"},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			keyPath := writeClientKey(t, t.TempDir(), "right")
			stubPassphrasePrompt(t, testCase.terminal, testCase.passphrase, testCase.readErr)
			captureWriters(t)

			_, err := loadKeyPair(context.Background(), &appconfig.Options{PrivateKeyFile: keyPath})
			if err == nil || !strings.Contains(err.Error(), testCase.wantText) {
				t.Fatalf("loadKeyPair() error = %v, want to contain %q", err, testCase.wantText)
			}
		})
	}
}
