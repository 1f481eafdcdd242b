package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDefaultKeyValidationConfig(t *testing.T) {
	cfg := DefaultKeyValidationConfig()

	if cfg.MaxKeyLength != 1024 {
		t.Errorf("MaxKeyLength = %d, want 1024", cfg.MaxKeyLength)
	}
	if cfg.MaxTags != 64 {
		t.Errorf("MaxTags = %d, want 64", cfg.MaxTags)
	}
	if cfg.AllowEmpty {
		t.Error("AllowEmpty = true, want false")
	}
	if !cfg.AllowWhitespace {
		t.Error("AllowWhitespace = false, want true")
	}
}

func TestKeyValidator_Validate(t *testing.T) {
	t.Run("endpoints and keys pass", func(t *testing.T) {
		v := NewKeyValidator(DefaultKeyValidationConfig())

		valid := []string{
			"/weather",
			"/forecast/daily",
			"https://api.example.com/v1/current",
			"user:123",
			"key with spaces",
			strings.Repeat("a", 1024),
		}
		for _, key := range valid {
			if err := v.Validate(key); err != nil {
				t.Errorf("Validate(%q) = %v, want nil", key, err)
			}
		}
	})

	t.Run("empty rejected by default", func(t *testing.T) {
		v := NewKeyValidator(DefaultKeyValidationConfig())
		if err := v.Validate(""); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Validate(\"\") = %v, want ErrInvalidKey", err)
		}
	})

	t.Run("empty allowed when configured", func(t *testing.T) {
		v := NewKeyValidator(KeyValidationConfig{AllowEmpty: true})
		if err := v.Validate(""); err != nil {
			t.Errorf("Validate(\"\") = %v, want nil", err)
		}
	})

	t.Run("too long", func(t *testing.T) {
		v := NewKeyValidator(DefaultKeyValidationConfig())
		if err := v.Validate(strings.Repeat("a", 1025)); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Validate(1025 bytes) = %v, want ErrInvalidKey", err)
		}
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		v := NewKeyValidator(DefaultKeyValidationConfig())
		if err := v.Validate("bad\xff"); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Validate(invalid utf-8) = %v, want ErrInvalidKey", err)
		}
	})

	t.Run("control characters", func(t *testing.T) {
		v := NewKeyValidator(DefaultKeyValidationConfig())
		for _, key := range []string{"a\x00b", "a\nb", "a\x7fb"} {
			if err := v.Validate(key); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("Validate(%q) = %v, want ErrInvalidKey", key, err)
			}
		}

		permissive := NewKeyValidator(KeyValidationConfig{AllowControlChars: true, AllowWhitespace: true})
		if err := permissive.Validate("a\x01b"); err != nil {
			t.Errorf("Validate with AllowControlChars = %v, want nil", err)
		}
	})

	t.Run("whitespace disallowed", func(t *testing.T) {
		v := NewKeyValidator(KeyValidationConfig{AllowWhitespace: false})
		if err := v.Validate("a b"); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Validate(\"a b\") = %v, want ErrInvalidKey", err)
		}
	})

	t.Run("reserved patterns", func(t *testing.T) {
		v := NewKeyValidator(KeyValidationConfig{ReservedPatterns: []string{"__internal"}, AllowWhitespace: true})
		err := v.Validate("x__internal")
		if !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("Validate() = %v, want ErrInvalidKey", err)
		}
		if !strings.Contains(err.Error(), "__internal") {
			t.Errorf("error %q should name the pattern", err)
		}
	})
}

func TestKeyValidator_ValidateTags(t *testing.T) {
	v := NewKeyValidator(DefaultKeyValidationConfig())

	if err := v.ValidateTags([]string{"api", "/weather", "cache-first"}); err != nil {
		t.Errorf("ValidateTags(valid) = %v, want nil", err)
	}
	if err := v.ValidateTags(nil); err != nil {
		t.Errorf("ValidateTags(nil) = %v, want nil", err)
	}
	if err := v.ValidateTags([]string{"ok", ""}); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("ValidateTags(empty tag) = %v, want ErrInvalidKey", err)
	}

	many := make([]string, 65)
	for i := range many {
		many[i] = fmt.Sprintf("t%d", i)
	}
	if err := v.ValidateTags(many); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("ValidateTags(65 tags) = %v, want ErrInvalidKey", err)
	}
}

func TestIsInvalidKey(t *testing.T) {
	if !IsInvalidKey(fmt.Errorf("wrapped: %w", ErrInvalidKey)) {
		t.Error("IsInvalidKey(wrapped) = false, want true")
	}
	if IsInvalidKey(nil) {
		t.Error("IsInvalidKey(nil) = true, want false")
	}
	if IsInvalidKey(ErrTimeout) {
		t.Error("IsInvalidKey(ErrTimeout) = true, want false")
	}
}

func TestValidateKey(t *testing.T) {
	if err := ValidateKey("/weather"); err != nil {
		t.Errorf("ValidateKey() = %v, want nil", err)
	}
	if err := ValidateKey(""); err == nil {
		t.Error("ValidateKey(\"\") = nil, want error")
	}
}
