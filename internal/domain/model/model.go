// Package model contains domain models passed between layers.
package model

import "time"

// VoteValue is the direction of a community vote. Only Upvote and Downvote
// are valid; everything else is rejected before any state mutation.
type VoteValue int8

const (
	Upvote   VoteValue = 1
	Downvote VoteValue = -1
)

// Valid reports whether v is one of the two allowed vote directions.
func (v VoteValue) Valid() bool {
	return v == Upvote || v == Downvote
}

// Vote is a single user's live vote on a library. Identity is the composite
// (UserID, LibraryID) pair: a user holds at most one live vote per library,
// and the pair is the storage key, so existence checks are point lookups.
type Vote struct {
	UserID    string    `json:"userId"`
	LibraryID string    `json:"libraryId"`
	Value     VoteValue `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Library is a catalog entry for a software library. CommunityVotesSum is
// owned by the vote ledger: it always equals the sum of Value over the live
// votes for the library, and nothing else may write it.
type Library struct {
	ID            string `json:"id"`
	CategoryID    string `json:"categoryId"`
	Name          string `json:"name"`
	DescriptionES string `json:"descriptionEs"`
	DescriptionEN string `json:"descriptionEn,omitempty"`
	GithubURL     string `json:"githubUrl"`
	GithubID      int64  `json:"githubId,omitempty"`
	Language      string `json:"language,omitempty"`

	Stars int `json:"stars"`
	Forks int `json:"forks"`

	CommunityVotesSum int `json:"communityVotesSum"`

	// LastCommitDate is nil when recency is unknown.
	LastCommitDate *time.Time `json:"lastCommitDate,omitempty"`
	LastGithubSync *time.Time `json:"lastGithubSync,omitempty"`

	// DeprecatedAt marks the library terminally unranked when set.
	DeprecatedAt *time.Time `json:"deprecatedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Deprecated reports whether the library has been marked deprecated.
func (l *Library) Deprecated() bool {
	return l.DeprecatedAt != nil
}

// Description returns the description for the given locale, falling back to
// Spanish (the primary language of the directory) when the English text is
// missing.
func (l *Library) Description(locale string) string {
	if locale == "en" && l.DescriptionEN != "" {
		return l.DescriptionEN
	}
	return l.DescriptionES
}

// Category groups libraries for browsing. Names are bilingual.
type Category struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	NameES        string    `json:"nameEs"`
	NameEN        string    `json:"nameEn"`
	DescriptionES string    `json:"descriptionEs,omitempty"`
	DescriptionEN string    `json:"descriptionEn,omitempty"`
	Icon          string    `json:"icon,omitempty"`
	DisplayOrder  int       `json:"displayOrder"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Name returns the category name for the given locale.
func (c *Category) Name(locale string) string {
	if locale == "en" && c.NameEN != "" {
		return c.NameEN
	}
	return c.NameES
}

// Description returns the category description for the given locale.
func (c *Category) Description(locale string) string {
	if locale == "en" && c.DescriptionEN != "" {
		return c.DescriptionEN
	}
	return c.DescriptionES
}
