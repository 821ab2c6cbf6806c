package shortcode

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/wtsks/propsync/internal/config"
)

// AddressTag is the community address shortcode.
const AddressTag = "community_address"

// Page is the page a shortcode is rendered on.
type Page struct {
	// Title is the page title, the default selection for listings shortcodes.
	Title string `json:"title"`

	// Address is the community's full street address, if any.
	Address string `json:"address,omitempty"`
}

// Renderer renders an expanded delegate shortcode.
type Renderer interface {
	Render(ctx context.Context, tag string) (string, error)
}

// Passthrough returns the delegate tag unchanged for the host to render.
type Passthrough struct{}

// Render implements Renderer.
func (Passthrough) Render(_ context.Context, tag string) (string, error) {
	return tag, nil
}

// Expander replaces known shortcodes in content.
type Expander struct {
	settings config.ShortcodeSettings
	listings map[string]config.Profile
	renderer Renderer
}

// Option configures an Expander.
type Option func(*Expander)

// WithRenderer sets the delegate renderer.
func WithRenderer(r Renderer) Option {
	return func(e *Expander) {
		if r != nil {
			e.renderer = r
		}
	}
}

// NewExpander creates an Expander for the listings shortcodes of profiles.
func NewExpander(settings config.ShortcodeSettings, profiles []config.Profile, opts ...Option) *Expander {
	e := &Expander{
		settings: settings,
		listings: make(map[string]config.Profile, len(profiles)),
		renderer: Passthrough{},
	}
	for _, p := range profiles {
		if p.Shortcode != "" {
			e.listings[p.Shortcode] = p
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var (
	tagPattern  = regexp.MustCompile(`\[([A-Za-z0-9_-]+)([^\[\]]*)\]`)
	attrPattern = regexp.MustCompile(`([A-Za-z0-9_-]+)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"']+))`)
)

// Expand replaces every known shortcode in content. Unknown shortcodes are
// left in place.
func (e *Expander) Expand(ctx context.Context, page Page, content string) (string, error) {
	var sb strings.Builder
	last := 0
	for _, m := range tagPattern.FindAllStringSubmatchIndex(content, -1) {
		name := content[m[2]:m[3]]
		attrs := parseAttrs(content[m[4]:m[5]])

		var out string
		switch p, ok := e.listings[name]; {
		case ok:
			rendered, err := e.renderer.Render(ctx, e.Listings(p, page, attrs))
			if err != nil {
				return "", err
			}
			out = rendered
		case name == AddressTag:
			out = CommunityAddress(page.Address)
		default:
			continue
		}

		sb.WriteString(content[last:m[0]])
		sb.WriteString(out)
		last = m[1]
	}
	sb.WriteString(content[last:])
	return sb.String(), nil
}

// Listings builds the delegate shortcode for profile p. The selection
// attribute comes from attrs when present, else from the page title.
func (e *Expander) Listings(p config.Profile, page Page, attrs map[string]string) string {
	selection, ok := attrs[p.SelectionField]
	if !ok {
		selection = page.Title
	}

	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(e.settings.Delegate)
	for _, a := range e.settings.Attributes {
		writeAttr(&sb, a.Name, a.Value)
	}
	writeAttr(&sb, p.SelectionField, selection)
	sb.WriteString("]")
	return sb.String()
}

func writeAttr(sb *strings.Builder, name, value string) {
	sb.WriteString(" ")
	sb.WriteString(name)
	sb.WriteString(`="`)
	sb.WriteString(html.EscapeString(value))
	sb.WriteString(`"`)
}

// CommunityAddress renders the street part of address, the text before the
// first comma, as a heading. It returns "" when there is nothing to show.
func CommunityAddress(address string) string {
	street, _, _ := strings.Cut(address, ",")
	street = strings.TrimSpace(street)
	if street == "" {
		return ""
	}
	return "<h6>" + html.EscapeString(street) + "</h6>"
}

func parseAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrPattern.FindAllStringSubmatchIndex(s, -1) {
		name := s[m[2]:m[3]]
		for g := 4; g < len(m); g += 2 {
			if m[g] >= 0 {
				attrs[name] = s[m[g]:m[g+1]]
				break
			}
		}
	}
	return attrs
}
