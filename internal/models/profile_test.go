package models

import "testing"

// TestProfileInitials verifies the avatar fallback text for a range of names.
func TestProfileInitials(t *testing.T) {
	display := func(s string) *string { return &s }

	tests := []struct {
		name    string
		profile Profile
		want    string
	}{
		{name: "username only", profile: Profile{Username: "gopher"}, want: "GO"},
		{name: "display name wins", profile: Profile{Username: "gopher", DisplayName: display("ada lovelace")}, want: "AD"},
		{name: "single rune", profile: Profile{Username: "x"}, want: "X"},
		{name: "hangul display name", profile: Profile{Username: "kim", DisplayName: display("김철수")}, want: "김철"},
		{name: "empty", profile: Profile{}, want: "??"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.Initials(); got != tt.want {
				t.Errorf("Initials() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProfilePath(t *testing.T) {
	p := &Profile{Username: "gopher"}
	if got := p.Path(); got != "/@gopher" {
		t.Errorf("Path() = %q, want /@gopher", got)
	}
}
