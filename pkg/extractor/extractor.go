// Package extractor reads named fields out of a goquery selection using declared rules.
package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Rule declares how one semantic field is read from a node.
// With Attr empty the rule yields the first match's normalized text, otherwise the attribute value.
type Rule struct {
	Field    string
	Selector string
	Attr     string
	Required bool
}

// Extract applies every rule to sel. A rule that matches nothing yields "".
// The second result lists required fields that came back empty, in rule order.
func Extract(sel *goquery.Selection, rules []Rule) (map[string]string, []string) {
	fields := make(map[string]string, len(rules))
	var missing []string

	for _, rule := range rules {
		value := ""
		match := sel.Find(rule.Selector).First()
		if match.Length() > 0 {
			if rule.Attr == "" {
				value = NormalizeText(match.Text())
			} else {
				attr, _ := match.Attr(rule.Attr)
				value = strings.TrimSpace(attr)
			}
		}

		fields[rule.Field] = value
		if rule.Required && value == "" {
			missing = append(missing, rule.Field)
		}
	}

	return fields, missing
}

// NormalizeText trims s and collapses every run of whitespace into a single space.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Cells returns the normalized text of every td cell in the rows matched by each
// selector, in selector order and then document order.
func Cells(sel *goquery.Selection, rowSelectors ...string) []string {
	var cells []string
	for _, rowSelector := range rowSelectors {
		sel.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
			row.Find("td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, NormalizeText(cell.Text()))
			})
		})
	}
	return cells
}

// LabeledRows reads label/value pairs from rows of a table. Within a row the n-th label
// cell pairs with the n-th value cell. The first occurrence of a label wins.
func LabeledRows(sel *goquery.Selection, rowSelector, labelSelector, valueSelector string) map[string]string {
	fields := make(map[string]string)

	sel.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		labels := row.Find(labelSelector)
		values := row.Find(valueSelector)

		labels.Each(func(i int, label *goquery.Selection) {
			if i >= values.Length() {
				return
			}
			key := NormalizeText(label.Text())
			if key == "" {
				return
			}
			if _, seen := fields[key]; seen {
				return
			}
			fields[key] = NormalizeText(values.Eq(i).Text())
		})
	})

	return fields
}

// SiblingAfterHeading finds the first element matching headingSelector whose text
// contains marker and returns the normalized text of its next element sibling.
// ok is false when no such heading (or sibling) exists.
func SiblingAfterHeading(sel *goquery.Selection, headingSelector, marker string) (text string, ok bool) {
	heading := sel.Find(headingSelector).FilterFunction(func(_ int, h *goquery.Selection) bool {
		return strings.Contains(h.Text(), marker)
	}).First()
	if heading.Length() == 0 {
		return "", false
	}

	sibling := heading.Next()
	if sibling.Length() == 0 {
		return "", false
	}
	return NormalizeText(sibling.Text()), true
}
