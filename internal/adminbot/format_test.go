package adminbot

import (
	"strings"
	"testing"
	"time"

	"groupfarm/internal/storage"
)

func TestFormatStatus(t *testing.T) {
	t.Parallel()
	st := storage.Stats{TotalAccounts: 5, ActiveAccounts: 3, TotalGroups: 120}

	got := formatStatus(st, true)
	for _, want := range []string{"running", "5 total", "3 active", "120"} {
		if !strings.Contains(got, want) {
			t.Fatalf("formatStatus missing %q:\n%s", want, got)
		}
	}
	if got := formatStatus(st, false); !strings.Contains(got, "paused") {
		t.Fatalf("expected paused state:\n%s", got)
	}
}

func TestFormatAccounts(t *testing.T) {
	t.Parallel()
	if got := formatAccounts(nil); got != "No accounts." {
		t.Fatalf("empty list: %q", got)
	}

	accounts := []storage.Account{
		{ID: 1, Phone: "+1000", Active: true, CreatedGroups: 7, Proxy: storage.ProxyConfig{Host: "p", Port: 1080}},
		{ID: 2, Phone: "+2000", Active: false, DisabledReason: "Exceeded maximum active days"},
	}
	got := formatAccounts(accounts)
	for _, want := range []string{"#1 +1000", "7 groups", "🌐", "#2 +2000", "Exceeded maximum active days"} {
		if !strings.Contains(got, want) {
			t.Fatalf("formatAccounts missing %q:\n%s", want, got)
		}
	}
}

func TestFormatErrorsTruncates(t *testing.T) {
	t.Parallel()
	id := int64(3)
	recs := []storage.ErrorRecord{{
		AccountID: &id,
		Context:   "provisioning",
		Text:      strings.Repeat("x", 500),
		CreatedAt: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
	}}
	got := formatErrors(recs)
	if !strings.Contains(got, "provisioning") || !strings.Contains(got, "account 3") {
		t.Fatalf("formatErrors output:\n%s", got)
	}
	if !strings.Contains(got, "…") {
		t.Fatal("long error text should be truncated")
	}
}
