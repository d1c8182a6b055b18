package wiki

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var articleHref = regexp.MustCompile(`^/wiki/([^/:]*)$`)

type clickMessage struct {
	Type        string `json:"type"`
	Destination string `json:"destination"`
}

// FormatHTML rewrites article HTML for the game frame. Links to other
// articles become bare titles that post a click message carrying the decoded
// title to the parent window; every other link loses its href. Fragment links are untouched.
func FormatHTML(src string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for _, node := range nodes {
		rewriteLinks(node)
		if err := html.Render(&buf, node); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func rewriteLinks(node *html.Node) {
	if node.Type == html.ElementNode && node.DataAtom == atom.A {
		rewriteAnchor(node)
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		rewriteLinks(child)
	}
}

func rewriteAnchor(node *html.Node) {
	idx := attrIndex(node, "href")
	if idx < 0 {
		return
	}
	href := node.Attr[idx].Val
	if href == "" || href[0] == '#' {
		return
	}
	match := articleHref.FindStringSubmatch(href)
	if match == nil {
		node.Attr = append(node.Attr[:idx], node.Attr[idx+1:]...)
		return
	}
	node.Attr[idx].Val = match[1]
	payload, err := json.Marshal(clickMessage{Type: "click", Destination: NormalizeTitle(match[1])})
	if err != nil {
		return
	}
	onclick := fmt.Sprintf("window.parent.postMessage(%s, '*')", payload)
	if i := attrIndex(node, "onclick"); i >= 0 {
		node.Attr[i].Val = onclick
		return
	}
	node.Attr = append(node.Attr, html.Attribute{Key: "onclick", Val: onclick})
}

func attrIndex(node *html.Node, key string) int {
	for i, attr := range node.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return i
		}
	}
	return -1
}
