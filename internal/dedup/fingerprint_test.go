package dedup

import "testing"

func TestFingerprint_StableAcrossCosmeticDifferences(t *testing.T) {
	a := Fingerprint("Egypt Launches Smart Meter Rollout", "A big program starts.")
	b := Fingerprint("EGYPT launches SMART METER rollout!", "A big program starts???")

	if a != b {
		t.Errorf("fingerprints differ for cosmetically different articles: %q vs %q", a, b)
	}
	if len(a) != 32 {
		t.Errorf("fingerprint length = %d, want 32 hex chars", len(a))
	}
}

func TestFingerprint_SensitiveToContentChange(t *testing.T) {
	a := Fingerprint("Egypt Launches Smart Meter Rollout", "A big program starts.")
	b := Fingerprint("Egypt Launches Smart Meter Rollout", "A big program started.")

	if a == b {
		t.Errorf("fingerprints equal despite content change")
	}
}

func TestFingerprint_EmptyFields(t *testing.T) {
	a := Fingerprint("", "")
	b := Fingerprint("", "")
	if a != b {
		t.Errorf("empty-field fingerprints differ: %q vs %q", a, b)
	}
	if len(a) != 32 {
		t.Errorf("fingerprint length = %d, want 32", len(a))
	}
}
