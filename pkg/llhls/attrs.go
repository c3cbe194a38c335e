package llhls

import "fmt"

// Attr is one KEY=VALUE pair from a tag's attribute list. Quoted
// records whether the value was a quoted-string, since quoted values
// may contain commas that are not separators.
type Attr struct {
	Key    string
	Val    string
	Quoted bool
}

type attrList []Attr

func (l attrList) get(key string) (string, bool) {
	for _, a := range l {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// scanAttrs splits a comma separated KEY=VALUE attribute list. Every
// pair is returned, including attributes the caller does not know,
// so nothing is dropped on the way through.
func scanAttrs(s string) (attrList, error) {
	var attrs attrList
	i := 0
	for i < len(s) {
		start := i
		for i < len(s) && s[i] != '=' && s[i] != ',' {
			i++
		}
		if i >= len(s) || s[i] == ',' {
			return nil, fmt.Errorf("attribute %q has no value", s[start:i])
		}
		key := s[start:i]
		if key == "" {
			return nil, fmt.Errorf("attribute with empty name")
		}
		i++ // '='

		attr := Attr{Key: key}
		if i < len(s) && s[i] == '"' {
			i++
			vstart := i
			for i < len(s) && s[i] != '"' {
				i++
			}
			if i >= len(s) {
				return nil, fmt.Errorf("unterminated quoted value for %s", key)
			}
			attr.Val = s[vstart:i]
			attr.Quoted = true
			i++ // closing '"'
			if i < len(s) && s[i] != ',' {
				return nil, fmt.Errorf("unexpected %q after quoted value for %s", s[i], key)
			}
		} else {
			vstart := i
			for i < len(s) && s[i] != ',' {
				i++
			}
			attr.Val = s[vstart:i]
		}
		attrs = append(attrs, attr)

		if i < len(s) && s[i] == ',' {
			i++
		}
	}
	return attrs, nil
}
