package cache

import (
	"errors"
	"testing"
	"time"
)

func TestPolicy_Validate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Errorf("default policy should validate: %v", err)
	}
	if err := (Policy{MaxEntries: 0}).Validate(); !errors.Is(err, ErrInvalidMaxEntries) {
		t.Errorf("zero MaxEntries: got %v, want ErrInvalidMaxEntries", err)
	}
	if err := (Policy{MaxEntries: -1}).Validate(); !errors.Is(err, ErrInvalidMaxEntries) {
		t.Errorf("negative MaxEntries: got %v, want ErrInvalidMaxEntries", err)
	}
}

func TestPolicy_EffectiveTTL(t *testing.T) {
	p := Policy{MaxEntries: 10, DefaultTTL: 5 * time.Minute, MaxTTL: time.Hour}

	// No explicit TTL: default applies.
	if got := p.EffectiveTTL(0, false); got != 5*time.Minute {
		t.Errorf("EffectiveTTL(none) = %v, want 5m", got)
	}

	// Explicit TTL wins, even when zero or negative.
	if got := p.EffectiveTTL(0, true); got != 0 {
		t.Errorf("EffectiveTTL(0) = %v, want 0", got)
	}
	if got := p.EffectiveTTL(-time.Second, true); got != -time.Second {
		t.Errorf("EffectiveTTL(-1s) = %v, want -1s", got)
	}
	if got := p.EffectiveTTL(time.Minute, true); got != time.Minute {
		t.Errorf("EffectiveTTL(1m) = %v, want 1m", got)
	}

	// Positive TTLs clamp to MaxTTL.
	if got := p.EffectiveTTL(3*time.Hour, true); got != time.Hour {
		t.Errorf("EffectiveTTL(3h) = %v, want 1h clamp", got)
	}

	// No MaxTTL means no clamp.
	open := Policy{MaxEntries: 10, DefaultTTL: time.Minute}
	if got := open.EffectiveTTL(3*time.Hour, true); got != 3*time.Hour {
		t.Errorf("EffectiveTTL without MaxTTL = %v, want 3h", got)
	}
}

func TestValidateKey(t *testing.T) {
	if err := ValidateKey("site1:posts:ab12cd34"); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
	if err := ValidateKey(""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("empty key: got %v, want ErrInvalidKey", err)
	}
	if err := ValidateKey("  "); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("blank key: got %v, want ErrInvalidKey", err)
	}
	if err := ValidateKey("bad\nkey"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("newline key: got %v, want ErrInvalidKey", err)
	}
	long := make([]byte, MaxKeyLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if err := ValidateKey(string(long)); !errors.Is(err, ErrKeyTooLong) {
		t.Errorf("long key: got %v, want ErrKeyTooLong", err)
	}
}
