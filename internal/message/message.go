// Package message renders new postings into the text body of a notification.
package message

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/amishk599/jobalert/internal/model"
)

// Title returns the notification title for a search term,
// e.g. "New Job Alert (Product Manager)".
func Title(term model.SearchTerm) string {
	return "New Job Alert (" + term.DisplayName() + ")"
}

// Format groups postings by company and renders one block per company:
// the company line followed by a title line and a url line per posting.
// Blank titles and urls are left out.
// Companies are sorted by byte order (upper case before lower case); postings
// keep their arrival order inside a company. Blocks are separated by a single
// blank line. Empty input yields "".
func Format(postings []model.Posting) string {
	groups := make(map[string][]model.Posting)
	var companies []string
	for _, p := range postings {
		if _, ok := groups[p.Company]; !ok {
			companies = append(companies, p.Company)
		}
		groups[p.Company] = append(groups[p.Company], p)
	}
	slices.Sort(companies)

	var lines []string
	for _, company := range companies {
		lines = append(lines, company)
		for _, p := range groups[company] {
			lines = appendNonBlank(lines, p.Title, p.URL)
		}
		lines = append(lines, "")
	}

	return strings.TrimRightFunc(strings.Join(lines, "\n"), unicode.IsSpace)
}

// appendNonBlank appends the values that are not blank, so a missing field
// never adds an empty line inside or after a block.
func appendNonBlank(lines []string, values ...string) []string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			lines = append(lines, v)
		}
	}
	return lines
}

// Split breaks a formatted body into parts of at most limit runes. It cuts
// between company blocks where it can; an oversized block is cut between
// postings with its company line repeated, and an oversized line is cut hard.
// A limit <= 0 disables splitting.
func Split(body string, limit int) []string {
	if body == "" {
		return nil
	}
	if limit <= 0 || utf8.RuneCountInString(body) <= limit {
		return []string{body}
	}

	var pieces []string
	for _, block := range strings.Split(body, "\n\n") {
		pieces = append(pieces, splitBlock(block, limit)...)
	}

	var parts []string
	var cur string
	for _, piece := range pieces {
		switch {
		case cur == "":
			cur = piece
		case runeLen(cur)+2+runeLen(piece) <= limit:
			cur += "\n\n" + piece
		default:
			parts = append(parts, cur)
			cur = piece
		}
	}
	if cur != "" {
		parts = append(parts, cur)
	}
	return parts
}

func splitBlock(block string, limit int) []string {
	if runeLen(block) <= limit {
		return []string{block}
	}

	lines := strings.Split(block, "\n")
	header, rest := lines[0], lines[1:]

	var pieces []string
	cur := header
	for i := 0; i < len(rest); i += 2 {
		entry := strings.Join(rest[i:min(i+2, len(rest))], "\n")
		if runeLen(cur)+1+runeLen(entry) <= limit {
			cur += "\n" + entry
			continue
		}
		if cur != header {
			pieces = append(pieces, cur)
		}
		cur = header + "\n" + entry
		if runeLen(cur) > limit {
			pieces = append(pieces, hardCut(cur, limit)...)
			cur = header
		}
	}
	if cur != header || len(pieces) == 0 {
		pieces = append(pieces, hardCut(cur, limit)...)
	}
	return pieces
}

func hardCut(s string, limit int) []string {
	r := []rune(s)
	var out []string
	for len(r) > limit {
		out = append(out, string(r[:limit]))
		r = r[limit:]
	}
	return append(out, string(r))
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
