package crawler

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/torspider/torspider/internal/model"
	"github.com/torspider/torspider/internal/urlutil"
)

// textInputTypes are the <input> types whose default value is a usable
// field example.
var textInputTypes = map[string]bool{
	"text":     true,
	"password": true,
	"email":    true,
	"search":   true,
	"tel":      true,
	"url":      true,
}

// ParseResult holds everything one parsing pass extracts from a page.
//
// Design decision: We collect title, links and forms in a single DOM
// walk rather than separate extraction methods because:
//  1. One pass over the tree instead of three
//  2. The spider always needs all of them together
//  3. Related data can be tested as one unit
type ParseResult struct {
	// Title is the first <title> text, NFC-normalized and trimmed.
	// model.UnknownTitle when the page has no title.
	Title string

	// Links are the normalized, in-scope onion urls found in href
	// attributes, deduplicated in document order.
	Links []string

	// Forms describe the page's <form> elements.
	Forms []*model.FormDescriptor
}

// Parser extracts crawl data from HTML content.
//
// Design decision: We use golang.org/x/net/html rather than regex
// because:
//  1. It tolerates the malformed HTML hidden services serve
//  2. Form structure (inputs belonging to a form) needs a real tree
//  3. Standard library extension, well-maintained
type Parser struct {
	// baseHost supplies the host for relative links on the page.
	baseHost string
}

// NewParser creates a parser for a page fetched from pageURL.
func NewParser(pageURL string) *Parser {
	return &Parser{baseHost: urlutil.Host(pageURL)}
}

// Parse walks the HTML document and extracts title, links and forms.
// Parsing is tolerant: malformed markup yields whatever could be
// recovered, never an error. A page with no title reports
// model.UnknownTitle.
func (p *Parser) Parse(content string) *ParseResult {
	result := &ParseResult{
		Title: model.UnknownTitle,
		Links: make([]string, 0),
		Forms: make([]*model.FormDescriptor, 0),
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return result
	}

	seenTitle := false
	seenLinks := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if !seenTitle {
					if title := extractText(n); title != "" {
						result.Title = norm.NFC.String(title)
					}
					seenTitle = true
				}

			case "a":
				if href := getAttr(n, "href"); href != "" {
					link, ok := urlutil.NormalizeLink(strings.TrimSpace(href), p.baseHost)
					if ok && !seenLinks[link] {
						seenLinks[link] = true
						result.Links = append(result.Links, link)
					}
				}

			case "form":
				// The main walk still descends into the form so links
				// inside it are collected too.
				result.Forms = append(result.Forms, p.parseForm(n))
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result
}

// parseForm builds a FormDescriptor from a <form> element and its
// descendants.
func (p *Parser) parseForm(form *html.Node) *model.FormDescriptor {
	f := model.NewFormDescriptor()
	f.Action = getAttr(form, "action")
	f.Method = strings.ToUpper(getAttr(form, "method"))
	f.Target = getAttr(form, "target")

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "input":
				p.parseInput(n, f)
			case "select":
				if name := getAttr(n, "name"); name != "" {
					f.Dropdowns[name] = append(f.Dropdowns[name], optionValues(n)...)
				}
			case "textarea":
				if name := getAttr(n, "name"); name != "" {
					f.TextAreas[name] = strings.TrimSpace(extractText(n))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(form)

	return f
}

// parseInput files one <input> element into the descriptor bucket its
// type belongs to. Inputs without a name and non-data inputs (submit,
// hidden, button, file) are ignored.
func (p *Parser) parseInput(n *html.Node, f *model.FormDescriptor) {
	name := getAttr(n, "name")
	if name == "" {
		return
	}

	inputType := strings.ToLower(getAttr(n, "type"))
	if inputType == "" {
		inputType = "text"
	}

	switch {
	case textInputTypes[inputType]:
		f.TextFields[name] = getAttr(n, "value")
	case inputType == "radio":
		f.RadioButtons[name] = append(f.RadioButtons[name], getAttr(n, "value"))
	case inputType == "checkbox":
		f.Checkboxes[name] = append(f.Checkboxes[name], getAttr(n, "value"))
	case inputType == "date":
		f.Dates = append(f.Dates, name)
	case inputType == "datetime-local":
		f.Datetimes = append(f.Datetimes, name)
	case inputType == "month":
		f.Months = append(f.Months, name)
	case inputType == "number":
		f.Numbers = append(f.Numbers, name)
	case inputType == "range":
		f.Ranges = append(f.Ranges, name)
	case inputType == "time":
		f.Times = append(f.Times, name)
	case inputType == "week":
		f.Weeks = append(f.Weeks, name)
	}
}

// optionValues collects the value attributes of a select's <option>
// children, falling back to the option text when the attribute is
// absent.
func optionValues(sel *html.Node) []string {
	var values []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "option" {
			value := getAttr(n, "value")
			if value == "" {
				value = strings.TrimSpace(extractText(n))
			}
			values = append(values, value)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(sel)

	return values
}

// extractText concatenates the text nodes under n.
func extractText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
