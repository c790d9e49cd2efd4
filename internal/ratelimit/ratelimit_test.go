package ratelimit

import "testing"

func TestLimiter_EnforcesBudget(t *testing.T) {
	l := New(2, 0, 1)

	if !l.Allow(ProviderNewsAPI) || !l.Allow(ProviderNewsAPI) {
		t.Fatal("requests within budget denied")
	}
	if l.Allow(ProviderNewsAPI) {
		t.Error("request over budget allowed")
	}
	if l.Used(ProviderNewsAPI) != 2 {
		t.Errorf("Used = %d, want 2", l.Used(ProviderNewsAPI))
	}
}

func TestLimiter_ZeroMeansUnlimited(t *testing.T) {
	l := New(0, 0, 0)
	for i := 0; i < 100; i++ {
		if !l.Allow(ProviderSerpAPI) {
			t.Fatalf("unlimited provider denied at request %d", i+1)
		}
	}
}
