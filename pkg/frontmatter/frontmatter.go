package frontmatter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
)

var frontmatterPattern = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n?(.*)`)

// Frontmatter represents the structured metadata at the beginning of an
// exported note
type Frontmatter struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Abstract string `yaml:"abstract,omitempty"`
	Syntax   string `yaml:"syntax,omitempty"`
	Created  string `yaml:"created"`
	Modified string `yaml:"modified"`
}

// FromNote captures a note's metadata
func FromNote(n *models.Note) *Frontmatter {
	return &Frontmatter{
		ID:       n.ID,
		Title:    n.Title,
		Abstract: n.Abstract,
		Syntax:   n.Syntax,
		Created:  FormatTimestamp(n.CreatedAt),
		Modified: FormatTimestamp(n.UpdatedAt),
	}
}

// Parse extracts frontmatter from content and returns the parsed data and body
func Parse(content string) (*Frontmatter, string, error) {
	matches := frontmatterPattern.FindStringSubmatch(content)
	if len(matches) != 3 {
		// No frontmatter found
		return nil, content, nil
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(matches[1]), &fm); err != nil {
		return nil, content, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	return &fm, strings.TrimPrefix(matches[2], "\n"), nil
}

// Build creates the YAML frontmatter string from a Frontmatter struct
func Build(fm *Frontmatter) string {
	var sb strings.Builder

	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("id: %s\n", fm.ID))
	sb.WriteString(fmt.Sprintf("title: %s\n", quote(fm.Title)))
	if fm.Abstract != "" {
		sb.WriteString(fmt.Sprintf("abstract: %s\n", quote(fm.Abstract)))
	}
	if fm.Syntax != "" {
		sb.WriteString(fmt.Sprintf("syntax: %s\n", fm.Syntax))
	}
	sb.WriteString(fmt.Sprintf("created: %s\n", fm.Created))
	sb.WriteString(fmt.Sprintf("modified: %s\n", fm.Modified))
	sb.WriteString("---")

	return sb.String()
}

// BuildContent combines frontmatter and body content into a complete document
func BuildContent(fm *Frontmatter, bodyContent string) string {
	return Build(fm) + "\n\n" + bodyContent
}

// FormatTimestamp formats a time.Time into the standard frontmatter timestamp format
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// ParseTimestamp parses a frontmatter timestamp string into time.Time
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05", s)
}

func quote(s string) string {
	if needsQuoting(s) {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// needsQuoting checks if a string needs to be quoted in YAML
func needsQuoting(s string) bool {
	if s == "" || s != strings.TrimSpace(s) {
		return true
	}
	if strings.ContainsAny(s, ",:[]{}\"'#&*!|>%@`\n\t\\") {
		return true
	}
	switch strings.ToLower(s) {
	case "true", "false", "yes", "no", "on", "off", "null", "~":
		return true
	}
	return strings.IndexAny(s[:1], "-?0123456789.+") == 0
}
