package syfix

import (
	"regexp"
	"sort"
	"strings"
)

var (
	// a run of backslashes in front of a dollar sign
	escapedDollar = regexp.MustCompile(`(\\+)\$`)

	// links and images that point to a file with an image extension
	imageRef = regexp.MustCompile(`!?\[([^\]\n]*)\]\(([^)\n]*?)\.(bmp|jpg|png|tif|gif|pcx|tga|exif|fpx|svg|psd|cdr|pcd|dxf|ufo|eps|ai|raw|wmf|webp|jpeg)\)`)

	// a math block with an additional pair of inline delimiters inside
	nestedMath = regexp.MustCompile(`(?s)\$\$\n\$*(.*?)\$*\n\$\$`)

	// callout markers like [!info] or [!important]
	calloutMarker = regexp.MustCompile(`\[!([^\]\n]*)\]`)

	// kramdown inline attribute list, e.g. {: id="..." updated="..."}
	attributeList = regexp.MustCompile(`\{: [^{}\n]*?=[^{}\n]*? [^{}\n]*?=[^{}\n]*?\}`)

	markdownLink = regexp.MustCompile(`\[.*?\]\((.*?)\)`)
)

const (
	calloutImportant = "important"
	calloutInfo      = "info"
)

// Transform rewrites the kramdown content of a block with the given type.
//
// The boolean result is false if blocks of this type are not rewritten;
// the content is returned unchanged in that case.
func Transform(t NodeType, kramdown string) (string, bool) {
	switch t {
	case Paragraph:
		return RewriteParagraph(kramdown), true
	case MathBlock:
		return RewriteMathBlock(kramdown), true
	case Blockquote:
		return RewriteBlockquote(kramdown), true
	case OtherNode:
		return kramdown, false
	}
	return kramdown, false
}

// DropAttributes removes the last line from kramdown content.
// For content read from the note service, the last line is the
// attribute list of the block.
//
// Content with a single line becomes empty.
func DropAttributes(kramdown string) string {
	i := strings.LastIndex(kramdown, "\n")
	if i < 0 {
		return ""
	}
	return kramdown[:i]
}

// RewriteParagraph undoes over-escaped inline math delimiters
// and turns links to image files into embedded images.
func RewriteParagraph(kramdown string) string {
	s := DropAttributes(kramdown)

	if strings.Contains(s, `\$`) {
		s = escapedDollar.ReplaceAllStringFunc(s, func(m string) string {
			n := len(m) - 1
			return strings.Repeat(`\`, n/2) + "$"
		})
	}

	return imageRef.ReplaceAllString(s, "![${1}](${2}.${3})")
}

// RewriteMathBlock removes inline math delimiters nested inside a math block.
func RewriteMathBlock(kramdown string) string {
	s := DropAttributes(kramdown)

	if strings.Contains(s, "$$\n$") {
		s = nestedMath.ReplaceAllString(s, "$$$$\n${1}\n$$$$")
	}

	return s
}

// RewriteBlockquote replaces `[!important]` and `[!info]` callouts with
// plain text.
//
// Important sections are kept as they are.
// Info sections are reduced to their title, which becomes a link if the
// section contains one.
// Blockquotes without one of these callouts are returned unchanged.
func RewriteBlockquote(kramdown string) string {
	if !strings.Contains(kramdown, "[!"+calloutImportant+"]") && !strings.Contains(kramdown, "[!"+calloutInfo+"]") {
		return kramdown
	}

	markers := calloutMarker.FindAllStringSubmatchIndex(kramdown, -1)

	// A section ends where the next marker or attribute list starts.
	bounds := make([]int, 0, len(markers))
	for _, m := range markers {
		bounds = append(bounds, m[0])
	}
	for _, a := range attributeList.FindAllStringIndex(kramdown, -1) {
		bounds = append(bounds, a[0])
	}
	sort.Ints(bounds)

	important := make([]string, 0)
	info := make([]string, 0)
	for _, m := range markers {
		tag := kramdown[m[2]:m[3]]
		if tag != calloutImportant && tag != calloutInfo {
			continue
		}

		start := m[1]
		end := len(kramdown)
		if i := sort.SearchInts(bounds, start); i < len(bounds) {
			end = bounds[i]
		}
		section := kramdown[start:end]

		switch tag {
		case calloutImportant:
			important = append(important, importantText(section))
		case calloutInfo:
			info = append(info, infoLine(section))
		}
	}

	return strings.Join(append(important, info...), "\n\n")
}

// importantText trims a section and removes the empty quote line that
// precedes the next marker or attribute list.
func importantText(section string) string {
	s := strings.TrimRight(section, " \t")
	s = strings.TrimSuffix(s, "\n>")
	return strings.TrimSpace(s)
}

func infoLine(section string) string {
	section = strings.TrimPrefix(section, "\n")
	title := section
	if i := strings.Index(section, "\n"); i >= 0 {
		title = section[:i]
	}
	title = strings.TrimSpace(title)

	link := markdownLink.FindStringSubmatch(section)
	if link == nil {
		return title
	}
	return "[" + title + "](" + link[1] + ")"
}
