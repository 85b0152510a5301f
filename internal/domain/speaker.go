package domain

import (
	"regexp"
	"strings"
)

// SpeakerLinks are the optional social links of a speaker.
type SpeakerLinks struct {
	GitHub   string `json:"github,omitempty" yaml:"github,omitempty"`
	LinkedIn string `json:"linkedin,omitempty" yaml:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty" yaml:"twitter,omitempty"`
	Website  string `json:"website,omitempty" yaml:"website,omitempty"`
}

// Speaker represents a speaker at an event. Speakers belong to exactly one event.
// swagger:model Speaker
type Speaker struct {
	ID       string        `json:"id" yaml:"id"`
	Name     string        `json:"name" yaml:"name"`
	Title    string        `json:"title,omitempty" yaml:"title,omitempty"`
	Company  string        `json:"company,omitempty" yaml:"company,omitempty"`
	Bio      string        `json:"bio,omitempty" yaml:"bio,omitempty"`
	PhotoURL string        `json:"photoUrl,omitempty" yaml:"photoUrl,omitempty"`
	Links    *SpeakerLinks `json:"links,omitempty" yaml:"links,omitempty"`
}

var githubUserRegex = regexp.MustCompile(`github\.com/([^/?]+)`)

// GitHubAvatarURL derives https://github.com/{user}.png from a GitHub profile URL
// or an "@user" handle. Returns "" when no username can be extracted.
func GitHubAvatarURL(githubURL string) string {
	if githubURL == "" {
		return ""
	}
	if strings.HasPrefix(githubURL, "@") {
		return "https://github.com/" + githubURL[1:] + ".png"
	}
	m := githubUserRegex.FindStringSubmatch(githubURL)
	if m == nil {
		return ""
	}
	return "https://github.com/" + m[1] + ".png"
}

// AvatarURL returns the speaker photo, falling back to the GitHub avatar.
func (s Speaker) AvatarURL() string {
	if s.PhotoURL != "" {
		return s.PhotoURL
	}
	if s.Links != nil {
		return GitHubAvatarURL(s.Links.GitHub)
	}
	return ""
}
