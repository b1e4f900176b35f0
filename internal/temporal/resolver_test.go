package temporal

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s unavailable: %v", name, err)
	}
	return loc
}

func TestResolve_Relative(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	ref := time.Date(2025, 6, 11, 14, 30, 0, 0, ny)
	at := func(d, h, m int) time.Time { return time.Date(2025, 6, d, h, m, 0, 0, ny).UTC() }

	tests := []struct {
		in   string
		want time.Time
	}{
		{"just now", ref.UTC()},
		{"Now.", ref.UTC()},
		{"5 minutes ago", ref.Add(-5 * time.Minute).UTC()},
		{"five minutes ago", ref.Add(-5 * time.Minute).UTC()},
		{"twenty-five mins ago", ref.Add(-25 * time.Minute).UTC()},
		{"an hour ago", ref.Add(-time.Hour).UTC()},
		{"1 hour ago", ref.Add(-time.Hour).UTC()},
		{"one hour ago", ref.Add(-time.Hour).UTC()},
		{"3 hours ago", ref.Add(-3 * time.Hour).UTC()},
		{"a couple of hours ago", ref.Add(-2 * time.Hour).UTC()},
		{"half an hour ago", ref.Add(-30 * time.Minute).UTC()},
		{"yesterday", at(10, 14, 30)},
		{"yesterday at 7pm", at(10, 19, 0)},
		{"Yesterday at 7:45 a.m.", at(10, 7, 45)},
		{"yesterday 21:15", at(10, 21, 15)},
		{"yesterday morning", at(10, 7, 0)},
		{"2 days ago", at(9, 14, 30)},
		{"two days ago", at(9, 14, 30)},
		{"last week", at(4, 14, 30)},
		{"this morning", at(11, 7, 0)},
		{"afternoon", at(11, 14, 0)},
		{"this evening", at(11, 18, 0)},
		{"tonight", at(11, 20, 0)},
		{"last night", at(10, 22, 0)},
		{"earlier", at(11, 12, 30)},
		{"earlier today", at(11, 12, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Resolve(tt.in, ref, ny)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("Resolve(%q) = %s, want %s", tt.in, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Fatalf("result must be UTC, got %s", got.Location())
			}
		})
	}
}

func TestResolve_Absolute(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	ref := time.Date(2025, 6, 11, 14, 30, 0, 0, ny)
	at := func(h, m int) time.Time { return time.Date(2025, 6, 11, h, m, 0, 0, ny).UTC() }

	tests := []struct {
		in   string
		want time.Time
	}{
		{"7am", at(7, 0)},
		{"at 7:30 PM", at(19, 30)},
		{"12am", at(0, 0)},
		{"12pm", at(12, 0)},
		{"18:45", at(18, 45)},
		{"today at 06:10", at(6, 10)},
		{"noon", at(12, 0)},
		{"around midnight", at(0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Resolve(tt.in, ref, ny)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("Resolve(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolve_EarlierClampsToMidnight(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	ref := time.Date(2025, 6, 11, 1, 0, 0, 0, ny)
	got, err := Resolve("earlier today", ref, ny)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := time.Date(2025, 6, 11, 0, 0, 0, 0, ny); !got.Equal(want) {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestResolve_Unrecognized(t *testing.T) {
	ref := time.Date(2025, 6, 11, 14, 30, 0, 0, time.UTC)
	for _, in := range []string{"", "whenever", "25:00", "13pm", "yesterday at 99", "soon-ish"} {
		if _, err := Resolve(in, ref, time.UTC); !errors.Is(err, ErrUnrecognized) {
			t.Fatalf("Resolve(%q): expected ErrUnrecognized, got %v", in, err)
		}
	}
}

func TestResolve_YesterdayNoonAndMidnight(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	ref := time.Date(2025, 6, 11, 14, 30, 0, 0, ny)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"yesterday at noon", time.Date(2025, 6, 10, 12, 0, 0, 0, ny)},
		{"yesterday midday", time.Date(2025, 6, 10, 12, 0, 0, 0, ny)},
		{"yesterday around midnight", time.Date(2025, 6, 10, 0, 0, 0, 0, ny)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Resolve(tt.in, ref, ny)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("Resolve(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolve_ManilaYesterdayAfternoon(t *testing.T) {
	manila := mustLoad(t, "Asia/Manila")
	// 09:30 on June 2 in Manila.
	ref := time.Date(2025, 6, 2, 1, 30, 0, 0, time.UTC)

	got, err := Resolve("yesterday at 2pm", ref, manila)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("got %s want %s", got, want)
	}
	if local := got.In(manila); local.Day() != 1 || local.Hour() != 14 {
		t.Fatalf("expected 14:00 on June 1 local, got %s", local)
	}
}

func TestResolve_AgoBeyondLookback(t *testing.T) {
	manila := mustLoad(t, "Asia/Manila")
	ref := time.Date(2025, 6, 2, 1, 30, 0, 0, time.UTC)

	for _, in := range []string{
		"99999999999 hours ago",
		"99999999999 minutes ago",
		"99999999999999999999999 hours ago",
		"4000 days ago",
		"999999999999 days ago",
	} {
		t.Run(in, func(t *testing.T) {
			if _, err := Resolve(in, ref, manila); !errors.Is(err, ErrUnrecognized) {
				t.Fatalf("Resolve(%q): expected ErrUnrecognized, got %v", in, err)
			}
			got, match, err := ResolveOrParse(in, ref, manila)
			if !errors.Is(err, ErrUnrecognized) {
				t.Fatalf("ResolveOrParse(%q) = %s %s, expected ErrUnrecognized", in, got, match)
			}
		})
	}

	// The bound itself still resolves, and never lands after ref.
	got, err := Resolve("3650 days ago", ref, manila)
	if err != nil {
		t.Fatalf("Resolve at bound: %v", err)
	}
	if got.After(ref) {
		t.Fatalf("ago result %s is after ref %s", got, ref)
	}
	if _, err := Resolve("87600 hours ago", ref, manila); err != nil {
		t.Fatalf("Resolve hours at bound: %v", err)
	}
}

func TestResolve_AcrossDST(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	// 2025-03-09 is the spring-forward day in New York.
	ref := time.Date(2025, 3, 9, 12, 0, 0, 0, ny)

	got, err := Resolve("yesterday", ref, ny)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := time.Date(2025, 3, 8, 12, 0, 0, 0, ny)
	if !got.Equal(want) {
		t.Fatalf("got %s want %s", got, want)
	}
	if ref.Sub(got) != 23*time.Hour {
		t.Fatalf("expected a 23h calendar day across the transition, got %s", ref.Sub(got))
	}

	night, err := Resolve("last night", ref, ny)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if wantUTC := time.Date(2025, 3, 9, 3, 0, 0, 0, time.UTC); !night.Equal(wantUTC) {
		t.Fatalf("last night = %s, want %s", night, wantUTC)
	}
}

func TestResolveOrParse(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	ref := time.Date(2025, 6, 11, 14, 30, 0, 0, ny)

	got, match, err := ResolveOrParse("an hour ago", ref, ny)
	if err != nil || match != MatchRelative || !got.Equal(ref.Add(-time.Hour)) {
		t.Fatalf("relative path: got %s %s %v", got, match, err)
	}

	got, match, err = ResolveOrParse("2025-06-01 08:00", ref, ny)
	if err != nil {
		t.Fatalf("fallback path: %v", err)
	}
	if match != MatchFallback {
		t.Fatalf("expected fallback match, got %s", match)
	}
	if want := time.Date(2025, 6, 1, 8, 0, 0, 0, ny); !got.Equal(want) {
		t.Fatalf("fallback = %s, want %s", got, want)
	}

	if _, _, err := ResolveOrParse("after my nap", ref, ny); !errors.Is(err, ErrUnrecognized) {
		t.Fatalf("expected ErrUnrecognized, got %v", err)
	}
}
