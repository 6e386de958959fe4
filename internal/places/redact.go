package places

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const redacted = "<redacted>"

// redactError strips the API key from an error message. Transport errors from
// net/http embed the full request URL, and the key travels as a query param.
func redactError(err error, apiKey string) error {
	if err == nil || apiKey == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, apiKey) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(msg, apiKey, redacted), err: err}
}

// redactedError hides the key in its message but keeps the wrapped chain, so
// errors.Is still sees context.Canceled and friends.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }

// Fingerprint returns a short stable identifier for an API key, safe to log.
func Fingerprint(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:4])
}
