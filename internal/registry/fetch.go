package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork

	"github.com/lone-outpost-oss/multimoon/internal/config"
)

// SignatureName is the detached signature file served next to an index.
const SignatureName = "index.sig"

// ErrSignature indicates the registry index signature did not verify.
var ErrSignature = errors.New("registry signature verification failed")

// Fetcher downloads registry indexes.
type Fetcher struct {
	client  *http.Client
	logger  config.Logger
	keyring openpgp.EntityList
}

// NewFetcher creates a fetcher. A nil client means http.DefaultClient.
func NewFetcher(client *http.Client, logger config.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		client: client,
		logger: config.LoggerOrNoop(logger),
	}
}

// WithKeyring enables detached signature verification of every fetched
// index against keyring.
func (f *Fetcher) WithKeyring(keyring openpgp.EntityList) *Fetcher {
	f.keyring = keyring
	return f
}

// Fetch downloads, verifies and decodes the index at `<base>/<archTag>/`.
func (f *Fetcher) Fetch(ctx context.Context, base *url.URL, archTag string) (*Registry, error) {
	indexURL := IndexURL(base, archTag)

	f.logger.Info("downloading registry index", "url", indexURL.String())
	data, err := Get(ctx, f.client, indexURL.String())
	if err != nil {
		return nil, fmt.Errorf("download registry index: %w", err)
	}

	if len(f.keyring) > 0 {
		sigURL := indexURL.ResolveReference(&url.URL{Path: SignatureName})
		f.logger.Debug("downloading registry signature", "url", sigURL.String())

		sig, err := Get(ctx, f.client, sigURL.String())
		if err != nil {
			return nil, fmt.Errorf("download registry signature: %w", err)
		}
		if err := VerifySignature(f.keyring, data, sig); err != nil {
			return nil, err
		}
	}

	reg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// VerifySignature checks a detached signature over data, accepting armored
// and binary signatures.
func VerifySignature(keyring openpgp.EntityList, data, sig []byte) error {
	_, err := openpgp.CheckArmoredDetachedSignature(keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	if err != nil {
		_, err = openpgp.CheckDetachedSignature(keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignature, err)
	}
	return nil
}

// LoadKeyring reads an armored or binary OpenPGP public keyring.
func LoadKeyring(path string) (openpgp.EntityList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}

	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring %s contains no keys", path)
	}
	return keyring, nil
}
