// Package cjson implements the OLPC canonical JSON encoding used to derive
// key identifiers: no insignificant whitespace, object keys in lexical order,
// and strings escaping only backslash and double quote. The encoding is
// deterministic, so equal values always canonicalize to equal bytes.
package cjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/secure-systems-lab/go-securesystemslib"
)

// EncodeCanonical returns the canonical JSON encoding of v. The value is
// first normalized through encoding/json, so any value the standard library
// can marshal is accepted. Numbers must be integral; floats have no canonical
// form and are rejected with securesystemslib.ErrFormat.
func EncodeCanonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", securesystemslib.ErrFormat, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var norm any
	if err := dec.Decode(&norm); err != nil {
		return nil, fmt.Errorf("%w: %v", securesystemslib.ErrFormat, err)
	}

	var buf bytes.Buffer
	if err := encode(&buf, norm); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		encodeString(buf, t)
	case json.Number:
		s := t.String()
		if strings.ContainsAny(s, ".eE") {
			return fmt.Errorf("%w: %q is not an integer, floats have no canonical encoding",
				securesystemslib.ErrFormat, s)
		}
		buf.WriteString(s)
	case []any:
		buf.WriteByte('[')
		for i, elem := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeString(buf, k)
			buf.WriteByte(':')
			if err := encode(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: cannot canonicalize value of type %T", securesystemslib.ErrFormat, v)
	}
	return nil
}

// encodeString writes s quoted, escaping only the two characters canonical
// JSON escapes. Control characters pass through verbatim.
func encodeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(c)
	}
	buf.WriteByte('"')
}
