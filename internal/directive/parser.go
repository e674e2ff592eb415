package directive

import (
	"regexp"
	"strings"

	"dirigent/internal/logging"
)

// Directive spans look like XML but arrive embedded in prose, so the
// scanner works on raw text rather than a conforming XML document. An
// opening tag needs quoted attribute values; anything else around the
// spans is ignored.
var (
	openTagRe = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9_-]*)((?:\s+[a-zA-Z_][a-zA-Z0-9_-]*\s*=\s*"[^"]*")*)\s*(/?)>`)
	attrRe    = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_-]*)\s*=\s*"([^"]*)"`)
)

// Item is one element of the parse stream: either an invocation or a
// span error, in input order.
type Item struct {
	Invocation *Invocation
	Err        *SpanError
}

// Scanner lazily walks model output and yields directive spans in
// input order. It is finite and non-restartable, in the manner of
// bufio.Scanner: call Next until it returns false.
type Scanner struct {
	text string
	pos  int
	item Item
}

// NewScanner creates a scanner over one turn of model output.
func NewScanner(text string) *Scanner {
	return &Scanner{text: text}
}

// Next advances to the next directive span or span error. It returns
// false when the input is exhausted.
func (s *Scanner) Next() bool {
	s.item = Item{}

	for s.pos < len(s.text) {
		loc := openTagRe.FindStringSubmatchIndex(s.text[s.pos:])
		if loc == nil {
			s.pos = len(s.text)
			return false
		}

		openStart := s.pos + loc[0]
		openEnd := s.pos + loc[1]
		tag := s.text[s.pos+loc[2] : s.pos+loc[3]]
		rawAttrs := s.text[s.pos+loc[4] : s.pos+loc[5]]
		selfClosing := loc[6] != loc[7]

		if selfClosing {
			s.pos = openEnd
			s.item.Invocation = &Invocation{
				Tag:    tag,
				Attrs:  parseAttrs(rawAttrs),
				Offset: openStart,
			}
			return true
		}

		closeMarker := "</" + tag + ">"
		rel := matchingClose(s.text, tag, openEnd)
		if rel < 0 {
			// Truncated or mismatched span. Report it and keep
			// scanning right after the opening tag so directives
			// further along, including a later same-tag span whose
			// close would otherwise be claimed by this one, are
			// still extracted.
			s.pos = openEnd
			s.item.Err = &SpanError{
				Offset: openStart,
				Tag:    tag,
				Reason: "missing closing tag",
			}
			logging.DirectiveDebug("Span error at offset %d: <%s> has no closing tag", openStart, tag)
			return true
		}

		inner := s.text[openEnd : openEnd+rel]
		s.pos = openEnd + rel + len(closeMarker)

		s.item.Invocation = &Invocation{
			Tag:      tag,
			Attrs:    parseAttrs(rawAttrs),
			Body:     strings.TrimSpace(inner),
			Children: parseChildren(inner),
			Offset:   openStart,
		}
		return true
	}

	return false
}

// Item returns the current invocation or span error. Valid only after
// a true Next.
func (s *Scanner) Item() Item {
	return s.item
}

// Parse drains a scanner over the text and returns all items in input
// order. Convenience for callers that do not need lazy iteration.
func Parse(text string) []Item {
	timer := logging.StartTimer(logging.CategoryDirective, "Parse")
	defer timer.Stop()

	var items []Item
	sc := NewScanner(text)
	for sc.Next() {
		items = append(items, sc.Item())
	}

	logging.DirectiveDebug("Parse found %d spans in %d bytes", len(items), len(text))
	return items
}

// matchingClose returns the offset, relative to from, of the close
// marker that balances the tag opened just before from. Same-name
// opening tags inside the span increase the depth, so an unclosed
// span never steals the close of a later well-formed one. Returns -1
// when the span is unbalanced.
func matchingClose(text, tag string, from int) int {
	closeMarker := "</" + tag + ">"
	depth := 1
	pos := from
	for {
		rel := strings.Index(text[pos:], closeMarker)
		if rel < 0 {
			return -1
		}
		depth += countSameTagOpens(text[pos:pos+rel], tag)
		depth--
		if depth == 0 {
			return pos + rel - from
		}
		pos += rel + len(closeMarker)
	}
}

// countSameTagOpens counts non-self-closing opening tags named tag in
// segment.
func countSameTagOpens(segment, tag string) int {
	n := 0
	for _, m := range openTagRe.FindAllStringSubmatchIndex(segment, -1) {
		if segment[m[2]:m[3]] == tag && m[6] == m[7] {
			n++
		}
	}
	return n
}

// parseAttrs extracts quoted attributes from the opening tag text.
func parseAttrs(raw string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrRe.FindAllStringSubmatch(raw, -1) {
		attrs[m[1]] = m[2]
	}
	return attrs
}

// maxChildDepth bounds recursion on nested child elements.
const maxChildDepth = 8

// parseChildren extracts top-level child elements from a directive
// body, in order. Text between elements is ignored; an unterminated
// candidate is treated as plain body text rather than an error.
func parseChildren(body string) []ChildElement {
	return parseChildrenDepth(body, 0)
}

func parseChildrenDepth(body string, depth int) []ChildElement {
	if depth >= maxChildDepth {
		return nil
	}

	var children []ChildElement
	pos := 0
	for pos < len(body) {
		loc := openTagRe.FindStringSubmatchIndex(body[pos:])
		if loc == nil {
			break
		}

		openEnd := pos + loc[1]
		name := body[pos+loc[2] : pos+loc[3]]
		selfClosing := loc[6] != loc[7]

		if selfClosing {
			children = append(children, ChildElement{Name: name})
			pos = openEnd
			continue
		}

		closeMarker := "</" + name + ">"
		rel := strings.Index(body[openEnd:], closeMarker)
		if rel < 0 {
			// Not a well-formed child; skip the candidate.
			pos = openEnd
			continue
		}

		inner := body[openEnd : openEnd+rel]
		children = append(children, ChildElement{
			Name:     name,
			Value:    strings.TrimSpace(inner),
			Children: parseChildrenDepth(inner, depth+1),
		})
		pos = openEnd + rel + len(closeMarker)
	}
	return children
}
