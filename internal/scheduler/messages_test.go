package scheduler

import (
	"strings"
	"testing"
	"time"
)

func TestDatetimeMessagesDeterministic(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 8, 29, 13, 45, 7, 0, time.UTC)

	a := datetimeMessages(at)
	b := datetimeMessages(at)
	if len(a) != 10 {
		t.Fatalf("expected 10 messages, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("message %d differs between identical calls: %q vs %q", i, a[i], b[i])
		}
	}

	if a[0] != "Year: 2026" {
		t.Fatalf("unexpected year message: %q", a[0])
	}
	if a[1] != "Month: 8 (August)" {
		t.Fatalf("unexpected month message: %q", a[1])
	}
	if a[3] != "Weekday: Saturday" {
		t.Fatalf("unexpected weekday message: %q", a[3])
	}
	if a[7] != "ISO: 2026-08-29T13:45:07Z" {
		t.Fatalf("unexpected ISO message: %q", a[7])
	}
	if a[9] != "Summary: 2026-08-29 13:45:07 UTC" {
		t.Fatalf("unexpected summary message: %q", a[9])
	}
}

func TestDatetimeMessagesOneSecondApart(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 8, 29, 13, 45, 7, 0, time.UTC)

	a := datetimeMessages(at)
	b := datetimeMessages(at.Add(time.Second))

	// At least the second, ISO and unix fields must differ.
	for _, i := range []int{6, 7, 8} {
		if a[i] == b[i] {
			t.Fatalf("message %d should differ one second apart: %q", i, a[i])
		}
	}
}

func TestGroupTitle(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	got := groupTitle(3, 42, at)
	want := "ACC03 • G042 • 2026-08-29"
	if got != want {
		t.Fatalf("groupTitle = %q, want %q", got, want)
	}

	// Distinct ordinals and sequence numbers never collide within a day.
	seen := map[string]bool{}
	for ord := 1; ord <= 5; ord++ {
		for n := 1; n <= 5; n++ {
			title := groupTitle(ord, n, at)
			if seen[title] {
				t.Fatalf("duplicate title %q", title)
			}
			seen[title] = true
			if !strings.HasSuffix(title, "2026-08-29") {
				t.Fatalf("title missing date: %q", title)
			}
		}
	}
}
