package game

import (
	"testing"
	"time"
)

func TestKey_IDIsStableAcrossTimezonesAndCase(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	a := NewKey(time.Date(2024, 1, 2, 21, 30, 0, 0, loc), " bos", "LAL ")
	b := NewKey(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "BOS", "lal")

	if a.ID() != "20240102-BOS-LAL" {
		t.Fatalf("unexpected id: %s", a.ID())
	}
	if a != b {
		t.Fatalf("expected equal keys, got %+v and %+v", a, b)
	}
}

func TestKey_Validate(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		key     Key
		wantErr bool
	}{
		{name: "valid", key: NewKey(day, "BOS", "LAL")},
		{name: "missing date", key: NewKey(time.Time{}, "BOS", "LAL"), wantErr: true},
		{name: "missing team", key: NewKey(day, "", "LAL"), wantErr: true},
		{name: "same team", key: NewKey(day, "BOS", "bos"), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.key.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("validate err=%v wantErr=%v", err, tc.wantErr)
			}
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]Status{
		"post":             StatusFinal,
		"STATUS_FINAL":     StatusFinal,
		"in":               StatusInProgress,
		"pre":              StatusScheduled,
		"":                 StatusScheduled,
		"STATUS_POSTPONED": StatusPostponed,
	}
	for raw, want := range cases {
		if got := NormalizeStatus(raw); got != want {
			t.Fatalf("NormalizeStatus(%q)=%s want %s", raw, got, want)
		}
	}
	if IsSettled(StatusInProgress) || !IsSettled(StatusPostponed) {
		t.Fatalf("unexpected settled classification")
	}
}

func TestGame_Margin(t *testing.T) {
	g := Game{HomeTeam: "BOS", AwayTeam: "LAL", HomeScore: 110, AwayScore: 102}
	if g.Margin("bos") != 8 || g.Margin("LAL") != -8 || g.Margin("NYK") != 0 {
		t.Fatalf("unexpected margins")
	}
}

func TestDay_UsesWallClockOfOwnLocation(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	got := Day(time.Date(2024, 1, 2, 21, 30, 0, 0, est))

	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("Day = %s, want %s", got, want)
	}
}

func TestToday_IsLocalCalendarDay(t *testing.T) {
	now := time.Date(2024, 1, 3, 23, 30, 0, 0, time.Local)
	if got := Today(now).Format(time.DateOnly); got != "2024-01-03" {
		t.Fatalf("Today = %s, want 2024-01-03", got)
	}
	if !Today(now.UTC()).Equal(Today(now)) {
		t.Fatalf("Today must not depend on the location of its argument")
	}
}
