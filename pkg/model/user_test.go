package model

import "testing"

func TestExtractLinkedInURL(t *testing.T) {
	tests := []struct {
		name    string
		bio     string
		website string
		want    string
	}{
		{
			name:    "website is a linkedin profile",
			website: "https://www.linkedin.com/in/jane-doe",
			want:    "https://www.linkedin.com/in/jane-doe",
		},
		{
			name: "full url in bio",
			bio:  "Founder. https://linkedin.com/in/jane-doe/ DMs open.",
			want: "https://linkedin.com/in/jane-doe",
		},
		{
			name: "bare url in bio",
			bio:  "Find me at linkedin.com/in/jane-doe",
			want: "https://www.linkedin.com/in/jane-doe",
		},
		{
			name: "handle shorthand",
			bio:  "@linkedin: jane-doe",
			want: "https://www.linkedin.com/in/jane-doe",
		},
		{
			name: "handle shorthand without colon",
			bio:  "@linkedin jane-doe",
			want: "https://www.linkedin.com/in/jane-doe",
		},
		{
			name: "case insensitive",
			bio:  "LINKEDIN.COM/IN/Jane-Doe",
			want: "https://www.LINKEDIN.COM/IN/Jane-Doe",
		},
		{
			name: "no linkedin anywhere",
			bio:  "Building things. Opinions my own.",
			want: "",
		},
		{
			name:    "unrelated website",
			website: "https://example.com",
			bio:     "hi",
			want:    "",
		},
		{
			name: "empty inputs",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractLinkedInURL(tt.bio, tt.website)
			if got != tt.want {
				t.Errorf("extractLinkedInURL(%q, %q) = %q, want %q", tt.bio, tt.website, got, tt.want)
			}
		})
	}
}

func TestExtractLinkedInURL_Deterministic(t *testing.T) {
	bio := "Founder. linkedin.com/in/jane-doe and https://linkedin.com/in/other"
	first := extractLinkedInURL(bio, "")
	for i := 0; i < 10; i++ {
		if got := extractLinkedInURL(bio, ""); got != first {
			t.Fatalf("extraction not deterministic: %q vs %q", got, first)
		}
	}
}

func TestPlaceholderUser(t *testing.T) {
	u := PlaceholderUser("12345")

	if u.ID != "12345" {
		t.Errorf("ID = %q, want 12345", u.ID)
	}
	if u.Username != "user_12345" {
		t.Errorf("Username = %q, want user_12345", u.Username)
	}
	if u.Name != "Unknown" {
		t.Errorf("Name = %q, want Unknown", u.Name)
	}
	if !u.IsPlaceholder() {
		t.Error("IsPlaceholder() = false, want true")
	}
}

func TestNewUser_DerivesLinkedIn(t *testing.T) {
	u := NewUser("1", "jane", "Jane Doe", "linkedin.com/in/jane", "", "Berlin", true)

	if u.LinkedInURL != "https://www.linkedin.com/in/jane" {
		t.Errorf("LinkedInURL = %q", u.LinkedInURL)
	}
	if u.IsPlaceholder() {
		t.Error("resolved user reported as placeholder")
	}
}
