package types

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// KeyValidationConfig controls validation of endpoints, cache keys and tags.
type KeyValidationConfig struct {
	ReservedPatterns  []string
	MaxKeyLength      int
	MaxTags           int
	AllowEmpty        bool
	AllowControlChars bool
	AllowWhitespace   bool
}

func DefaultKeyValidationConfig() KeyValidationConfig {
	return KeyValidationConfig{
		MaxKeyLength:      1024,
		MaxTags:           64,
		AllowEmpty:        false,
		AllowControlChars: false,
		AllowWhitespace:   true,
	}
}

type KeyValidator struct {
	config KeyValidationConfig
}

func NewKeyValidator(config KeyValidationConfig) *KeyValidator {
	return &KeyValidator{config: config}
}

// Validate checks an endpoint or cache key.
func (v *KeyValidator) Validate(key string) error {
	if key == "" {
		if !v.config.AllowEmpty {
			return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
		}
		return nil
	}

	if v.config.MaxKeyLength > 0 && len(key) > v.config.MaxKeyLength {
		return fmt.Errorf("%w: key length %d exceeds maximum %d bytes",
			ErrInvalidKey, len(key), v.config.MaxKeyLength)
	}

	if !utf8.ValidString(key) {
		return fmt.Errorf("%w: key contains invalid UTF-8", ErrInvalidKey)
	}

	for i, r := range key {
		if !v.config.AllowControlChars && (r < 32 || r == 127) {
			return fmt.Errorf("%w: key contains control character at position %d", ErrInvalidKey, i)
		}
		if !v.config.AllowWhitespace && unicode.IsSpace(r) {
			return fmt.Errorf("%w: key contains whitespace at position %d", ErrInvalidKey, i)
		}
	}

	for _, pattern := range v.config.ReservedPatterns {
		if strings.Contains(key, pattern) {
			return fmt.Errorf("%w: key contains reserved pattern %q", ErrInvalidKey, pattern)
		}
	}

	return nil
}

// ValidateTags checks every tag with the key rules; empty tags are never allowed.
func (v *KeyValidator) ValidateTags(tags []string) error {
	if v.config.MaxTags > 0 && len(tags) > v.config.MaxTags {
		return fmt.Errorf("%w: %d tags exceeds maximum %d", ErrInvalidKey, len(tags), v.config.MaxTags)
	}
	for _, tag := range tags {
		if tag == "" {
			return fmt.Errorf("%w: tag cannot be empty", ErrInvalidKey)
		}
		if err := v.Validate(tag); err != nil {
			return fmt.Errorf("tag %q: %w", tag, err)
		}
	}
	return nil
}

func ValidateKey(key string) error {
	return DefaultKeyValidator.Validate(key)
}

var DefaultKeyValidator = NewKeyValidator(DefaultKeyValidationConfig())

func IsInvalidKey(err error) bool {
	return errors.Is(err, ErrInvalidKey)
}
