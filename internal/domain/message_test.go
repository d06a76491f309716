package domain

import (
	"testing"
	"time"
)

func TestIsUnicast(t *testing.T) {
	for _, tc := range []struct {
		typ  string
		want bool
	}{
		{TypeOffer, true},
		{TypeAnswer, true},
		{TypeICECandidate, true},
		{TypeChatMessage, false},
		{TypeScreenShareStart, false},
		{TypeConnectionQuality, false},
		{"", false},
		{"OFFER", false},
	} {
		if got := IsUnicast(tc.typ); got != tc.want {
			t.Errorf("IsUnicast(%q) = %v, want %v", tc.typ, got, tc.want)
		}
	}
}

func TestTimestamp_UTCMillis(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	ts := time.Date(2024, 5, 6, 10, 20, 30, 123456789, loc)

	if got, want := Timestamp(ts), "2024-05-06T07:20:30.123Z"; got != want {
		t.Fatalf("Timestamp = %q, want %q", got, want)
	}
}
