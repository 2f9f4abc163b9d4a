package evaluation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// maxDocumentDepth bounds nesting of reservation payloads.
const maxDocumentDepth = 64

type nodeKind int

const (
	kindNull nodeKind = iota
	kindBool
	kindNumber
	kindString
	kindObject
	kindArray
)

// node is a parsed JSON value that keeps object keys in document order.
type node struct {
	kind   nodeKind
	str    string
	num    json.Number
	flag   bool
	fields []field
	items  []*node
}

type field struct {
	key   string
	value *node
}

// parseDocument decodes exactly one JSON value.
func parseDocument(data []byte) (*node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	root, err := decodeNode(dec, 0)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return nil, err
	}
	return root, nil
}

func decodeNode(dec *json.Decoder, depth int) (*node, error) {
	if depth > maxDocumentDepth {
		return nil, fmt.Errorf("nesting deeper than %d levels", maxDocumentDepth)
	}

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			n := &node{kind: kindObject}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, not string", keyTok)
				}
				value, err := decodeNode(dec, depth+1)
				if err != nil {
					return nil, err
				}
				n.fields = append(n.fields, field{key: key, value: value})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		case '[':
			n := &node{kind: kindArray}
			for dec.More() {
				item, err := decodeNode(dec, depth+1)
				if err != nil {
					return nil, err
				}
				n.items = append(n.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", v)
		}
	case string:
		return &node{kind: kindString, str: v}, nil
	case json.Number:
		return &node{kind: kindNumber, num: v}, nil
	case bool:
		return &node{kind: kindBool, flag: v}, nil
	case nil:
		return &node{kind: kindNull}, nil
	default:
		return nil, fmt.Errorf("unexpected token %T", tok)
	}
}

// text returns a scalar as text: strings verbatim, numbers in their literal
// form. Other kinds yield false.
func (n *node) text() (string, bool) {
	switch n.kind {
	case kindString:
		return n.str, true
	case kindNumber:
		return n.num.String(), true
	default:
		return "", false
	}
}

// lookup returns the first field of an object whose key satisfies match.
func (n *node) lookup(match func(key string) bool) (*node, bool) {
	if n == nil || n.kind != kindObject {
		return nil, false
	}
	for _, f := range n.fields {
		if match(f.key) {
			return f.value, true
		}
	}
	return nil, false
}

// marshal re-encodes the document in its original key order. rewrite, when
// set, may replace any string value given the key it sits under.
func (n *node) marshal(rewrite func(key, value string) string) []byte {
	var buf bytes.Buffer
	n.encode(&buf, "", rewrite)
	return buf.Bytes()
}

func (n *node) encode(buf *bytes.Buffer, key string, rewrite func(key, value string) string) {
	switch n.kind {
	case kindNull:
		buf.WriteString("null")
	case kindBool:
		buf.WriteString(strconv.FormatBool(n.flag))
	case kindNumber:
		buf.WriteString(n.num.String())
	case kindString:
		s := n.str
		if rewrite != nil {
			s = rewrite(key, s)
		}
		writeJSONString(buf, s)
	case kindObject:
		buf.WriteByte('{')
		for i, f := range n.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, f.key)
			buf.WriteByte(':')
			f.value.encode(buf, f.key, rewrite)
		}
		buf.WriteByte('}')
	case kindArray:
		buf.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			item.encode(buf, key, rewrite)
		}
		buf.WriteByte(']')
	}
}

func writeJSONString(buf *bytes.Buffer, s string) {
	// json.Marshal of a string cannot fail
	b, _ := json.Marshal(s)
	buf.Write(b)
}

// eachString visits every string value in document order.
func (n *node) eachString(visit func(key, value string)) {
	n.walkStrings("", visit)
}

func (n *node) walkStrings(key string, visit func(key, value string)) {
	switch n.kind {
	case kindString:
		visit(key, n.str)
	case kindObject:
		for _, f := range n.fields {
			f.value.walkStrings(f.key, visit)
		}
	case kindArray:
		for _, item := range n.items {
			item.walkStrings(key, visit)
		}
	}
}
