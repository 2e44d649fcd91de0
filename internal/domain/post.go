package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxTitleLength bounds post titles in characters.
	MaxTitleLength = 200
	// MaxExcerptLength bounds the stored excerpt.
	MaxExcerptLength = 500
	// ExcerptCutoff is where derived excerpts are truncated.
	ExcerptCutoff = 150
	// ExcerptEllipsis marks a truncated excerpt.
	ExcerptEllipsis = "..."
)

// Post is the single persisted entity of the blog.
type Post struct {
	ID        string
	Title     string
	Slug      string
	Content   string
	Excerpt   string
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostInput carries admin-supplied fields for create and update.
type PostInput struct {
	Title     string
	Content   string
	Slug      string
	Published *bool
}

var (
	slugPattern      = regexp.MustCompile(`^[a-z0-9-]+$`)
	slugDisallowed   = regexp.MustCompile(`[^a-z0-9 -]`)
	slugSpaces       = regexp.MustCompile(`\s+`)
	slugHyphens      = regexp.MustCompile(`-+`)
	markupTag        = regexp.MustCompile(`<[^>]*>`)
	excerptWhitspace = regexp.MustCompile(`[\s\v\x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]+`)
)

// DeriveSlug turns a title into a URL-safe identifier containing only [a-z0-9-],
// with no leading, trailing or repeated hyphens. Applying it to its own output is a no-op.
func DeriveSlug(title string) string {
	slug := strings.ToLower(title)
	slug = slugDisallowed.ReplaceAllString(slug, "")
	slug = strings.TrimSpace(slug)
	slug = slugSpaces.ReplaceAllString(slug, "-")
	slug = slugHyphens.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// NormalizeSlug applies the storage normalization to a supplied slug.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// reservedSlugs collide with fixed routes under /api/posts.
var reservedSlugs = map[string]struct{}{
	"public": {},
}

// ReservedSlug reports whether slug is taken by a fixed route.
func ReservedSlug(slug string) bool {
	_, ok := reservedSlugs[slug]
	return ok
}

// ValidSlug reports whether slug satisfies the stored character class.
func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// DeriveExcerpt projects rich-text content to plain text: tags become spaces, whitespace
// runs collapse to one space, and anything past ExcerptCutoff characters is cut and
// suffixed with ExcerptEllipsis.
func DeriveExcerpt(content string) string {
	text := markupTag.ReplaceAllString(content, " ")
	text = excerptWhitspace.ReplaceAllString(text, " ")
	text = strings.Trim(text, " ")

	if utf8.RuneCountInString(text) <= ExcerptCutoff {
		return text
	}
	runes := []rune(text)
	return string(runes[:ExcerptCutoff]) + ExcerptEllipsis
}

// TitleLength counts title characters the way the length limit is enforced.
func TitleLength(title string) int {
	return utf8.RuneCountInString(title)
}
