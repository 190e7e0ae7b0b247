package text

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// metaKey identifies a meta tag by attribute name and value, e.g.
// property="og:description".
type metaKey struct {
	attr  string
	value string
}

// descriptionKeys lists the meta tags consulted for post text, most
// preferred first.
var descriptionKeys = []metaKey{
	{attr: "property", value: "og:description"},
	{attr: "name", value: "description"},
	{attr: "property", value: "og:title"},
}

// descriptionFromMeta returns the first non-empty description meta tag
// content in body, whitespace collapsed. Attribute values are entity decoded
// by the tokenizer.
func descriptionFromMeta(body []byte) string {
	tags := metaContents(body)
	for _, key := range descriptionKeys {
		if v := Collapse(tags[key]); v != "" {
			return v
		}
	}
	return ""
}

// metaContents collects the content attribute of every meta tag in the
// document, keyed by its property or name attribute. The first occurrence
// of each key wins.
func metaContents(body []byte) map[metaKey]string {
	out := make(map[metaKey]string)
	z := html.NewTokenizer(bytes.NewReader(body))

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a malformed document; keep what was found so far.
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "meta" {
				continue
			}

			var content string
			var keys []metaKey
			for _, a := range tok.Attr {
				switch strings.ToLower(a.Key) {
				case "content":
					content = a.Val
				case "property", "name":
					keys = append(keys, metaKey{attr: strings.ToLower(a.Key), value: strings.ToLower(a.Val)})
				}
			}
			for _, k := range keys {
				if _, seen := out[k]; !seen {
					out[k] = content
				}
			}
		}
	}
}
