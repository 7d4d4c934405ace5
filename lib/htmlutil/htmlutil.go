package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText collapses inner whitespace and strips non-printable runes,
// the normalization applied to every scraped text value.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.Trim(s, " \t\n")
	s = innerWhitespace.ReplaceAllString(s, " ")
	return s
}

// SelectText returns the cleaned text of the first element matching the
// selector, or "" when nothing matches. an empty selector matches nothing.
func SelectText(sel *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	found := sel.Find(selector).First()
	if found.Length() == 0 {
		return ""
	}
	return CleanText(found.Text())
}

// SelectTextList returns the cleaned text of every element matching the
// selector, dropping entries that clean down to "".
func SelectTextList(sel *goquery.Selection, selector string) []string {
	if selector == "" {
		return nil
	}
	var out []string
	sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		text := CleanText(s.Text())
		if text != "" {
			out = append(out, text)
		}
	})
	return out
}

// SelectAttr returns the named attribute of the first element matching the
// selector, or "" when the element or attribute is absent.
func SelectAttr(sel *goquery.Selection, selector, attr string) string {
	if selector == "" {
		return ""
	}
	return sel.Find(selector).First().AttrOr(attr, "")
}

// FirstMatch tries an ordered list of selectors and returns the matches of
// the first one that yields anything. strategies are never merged, the
// first non-empty result wins.
func FirstMatch(sel *goquery.Selection, selectors ...string) *goquery.Selection {
	for _, s := range selectors {
		if s == "" {
			continue
		}
		found := sel.Find(s)
		if found.Length() > 0 {
			return found
		}
	}
	return sel.Find("")
}
