// Package model defines the value types flowing through the DM fetch
// pipeline: users, messages, conversations, and conversation batches.
package model

import (
	"fmt"
	"regexp"
	"strings"
)

// User represents an X user profile.
// All fields are fixed at construction; LinkedInURL is derived once
// from Bio and Website.
type User struct {
	ID          string
	Username    string
	Name        string
	Bio         string
	Website     string
	Location    string
	Verified    bool
	LinkedInURL string
}

// NewUser builds a User and derives the LinkedIn URL from bio and website.
func NewUser(id, username, name, bio, website, location string, verified bool) *User {
	u := &User{
		ID:       id,
		Username: username,
		Name:     name,
		Bio:      bio,
		Website:  website,
		Location: location,
		Verified: verified,
	}
	u.LinkedInURL = extractLinkedInURL(bio, website)
	return u
}

// PlaceholderUser returns a minimal stand-in profile for a participant
// whose lookup failed. Profile absence must never block a conversation
// fetch.
func PlaceholderUser(id string) *User {
	return &User{
		ID:       id,
		Username: fmt.Sprintf("user_%s", id),
		Name:     "Unknown",
	}
}

// IsPlaceholder reports whether this user was synthesized by
// PlaceholderUser rather than resolved from the API.
func (u *User) IsPlaceholder() bool {
	return u.Name == "Unknown" && u.Username == fmt.Sprintf("user_%s", u.ID)
}

var (
	linkedinFullURL = regexp.MustCompile(`(?i)https?://(?:www\.)?linkedin\.com/in/[\w\-]+/?`)
	linkedinBareURL = regexp.MustCompile(`(?i)linkedin\.com/in/[\w\-]+`)
	linkedinHandle  = regexp.MustCompile(`(?i)@linkedin:?\s*([\w\-]+)`)
)

// extractLinkedInURL scans the website URL and bio for a LinkedIn
// profile reference and normalizes it to a full https URL.
// Deterministic: same inputs always yield the same result.
func extractLinkedInURL(bio, website string) string {
	if website != "" && strings.Contains(strings.ToLower(website), "linkedin.com/in/") {
		return website
	}

	if bio == "" {
		return ""
	}

	if m := linkedinFullURL.FindString(bio); m != "" {
		return strings.TrimRight(m, "/")
	}

	// "@linkedin: username" shorthand
	if m := linkedinHandle.FindStringSubmatch(bio); m != nil {
		return "https://www.linkedin.com/in/" + m[1]
	}

	if m := linkedinBareURL.FindString(bio); m != "" {
		return "https://www." + m
	}

	return ""
}
