package display

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Filter rewrites a parsed page fragment in place.
type Filter struct {
	// Name identifies the filter in logs and tests.
	Name string

	// Apply mutates the fragment rooted at root.
	Apply func(root *html.Node)
}

// DefaultFilters returns the listing page filters in the order they run.
func DefaultFilters() []Filter {
	return []Filter{
		{Name: "thousands_separators", Apply: addThousandsSeparators},
		{Name: "list_agent_commas", Apply: removeListAgentCommas},
		{Name: "title_case", Apply: titleCaseNames},
		{Name: "comma_spacing", Apply: spaceAfterCommas},
		{Name: "phone_numbers", Apply: formatPhoneNumbers},
	}
}

// Processor applies filters to pages rendered with one template.
type Processor struct {
	template string
	filters  []Filter
}

// Option configures a Processor.
type Option func(*Processor)

// WithFilters replaces the default filter chain.
func WithFilters(filters ...Filter) Option {
	return func(p *Processor) {
		p.filters = filters
	}
}

// NewProcessor creates a Processor that only touches pages rendered with template.
func NewProcessor(template string, opts ...Option) *Processor {
	p := &Processor{
		template: template,
		filters:  DefaultFilters(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Template returns the page template the processor applies to.
func (p *Processor) Template() string {
	return p.template
}

// Process runs the filter chain over content when template matches.
// Blank content and pages of other templates are returned unchanged.
func (p *Processor) Process(template, content string) (string, error) {
	if template != p.template || strings.TrimSpace(content) == "" {
		return content, nil
	}

	nodes, err := html.ParseFragment(strings.NewReader(content), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return "", err
	}

	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	for _, f := range p.filters {
		f.Apply(root)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var digitRun = regexp.MustCompile(`\d+`)

// groupThousands inserts a comma every three digits, counting from the
// right, in each run of digits.
func groupThousands(s string) string {
	return digitRun.ReplaceAllStringFunc(s, func(run string) string {
		if len(run) <= 3 {
			return run
		}
		var sb strings.Builder
		lead := len(run) % 3
		if lead > 0 {
			sb.WriteString(run[:lead])
		}
		for i := lead; i < len(run); i += 3 {
			if sb.Len() > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(run[i : i+3])
		}
		return sb.String()
	})
}

func addThousandsSeparators(root *html.Node) {
	for _, span := range valueSpans(root, classArea, classLotSize) {
		rewriteText(span, groupThousands)
	}
}

func removeListAgentCommas(root *html.Node) {
	for _, span := range valueSpans(root, classListAgent) {
		rewriteText(span, func(s string) string {
			return strings.ReplaceAll(s, ",", "")
		})
	}
}

var wordPattern = regexp.MustCompile(`\w+`)

// titleCase lowercases each word and capitalizes its first letter.
func titleCase(s string) string {
	caser := cases.Title(language.Und)
	return wordPattern.ReplaceAllStringFunc(s, func(w string) string {
		return caser.String(strings.ToLower(w))
	})
}

func titleCaseNames(root *html.Node) {
	for _, span := range valueSpans(root, classBuilder, classSubdivision) {
		rewriteText(span, titleCase)
	}
}

var (
	currencyPattern = regexp.MustCompile(`\$\d{1,3}(,\d{3})*(\.\d+)?`)
	commaRun        = regexp.MustCompile(`, *`)
)

// spaceCommas leaves exactly one space after every comma. Currency text is
// left alone, as is a comma written directly between two digits.
func spaceCommas(s string) string {
	if currencyPattern.MatchString(s) {
		return s
	}

	var sb strings.Builder
	last := 0
	for _, loc := range commaRun.FindAllStringIndex(s, -1) {
		sb.WriteString(s[last:loc[0]])
		if loc[1]-loc[0] == 1 && isDigitAt(s, loc[0]-1) && isDigitAt(s, loc[1]) {
			sb.WriteByte(',')
		} else {
			sb.WriteString(", ")
		}
		last = loc[1]
	}
	sb.WriteString(s[last:])
	return sb.String()
}

func isDigitAt(s string, i int) bool {
	return i >= 0 && i < len(s) && s[i] >= '0' && s[i] <= '9'
}

func spaceAfterCommas(root *html.Node) {
	seen := make(map[*html.Node]bool)
	walk(root, func(div *html.Node) {
		if !isElement(div, "div") || !classContains(div, classSection) || classContains(div, classVideoSection) {
			return
		}
		walk(div, func(span *html.Node) {
			if seen[span] || !isElement(span, "span") || !classContains(span, classValue) {
				return
			}
			if insideRaw(span) {
				return
			}
			if isElement(span.Parent, "li") && classContains(span.Parent, classAreaEntity) {
				return
			}
			seen[span] = true
			rewriteText(span, spaceCommas)
		})
	})
}

var phonePattern = regexp.MustCompile(`(\d{3})-(\d{3})-(\d{4})`)

// formatPhone rewrites 123-456-7890 as (123) 456-7890.
func formatPhone(s string) string {
	return phonePattern.ReplaceAllString(s, "($1) $2-$3")
}

func formatPhoneNumbers(root *html.Node) {
	walk(root, func(n *html.Node) {
		if n.Type == html.TextNode && !insideRaw(n) {
			n.Data = formatPhone(n.Data)
		}
	})
}
