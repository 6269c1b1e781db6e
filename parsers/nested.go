package parsers

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/carbocation/pfx"
)

// Object is a decoded JSON object that remembers the order of its keys.
// Prediction reports are searched depth first, and the order in which matches
// are encountered must follow the document.
type Object struct {
	Keys   []string
	Values map[string]interface{}
}

func (o *Object) Get(key string) (interface{}, bool) {
	v, exists := o.Values[key]
	return v, exists
}

// DecodeOrdered decodes one JSON document. Objects become *Object, arrays
// []interface{}, numbers json.Number, and the remaining scalars their usual
// encoding/json types.
func DecodeOrdered(r io.Reader) (interface{}, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return v, nil
}

func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := &Object{Keys: make([]string, 0), Values: make(map[string]interface{})}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("expected object key, found %v", kt)
			}

			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}

			if _, exists := obj.Values[key]; !exists {
				obj.Keys = append(obj.Keys, key)
			}
			obj.Values[key] = v
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil

	case '[':
		arr := make([]interface{}, 0)
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}

	return nil, fmt.Errorf("unexpected delimiter %v", delim)
}

// FindKey searches v depth first for every occurrence of key and returns the
// matching values in encounter order. The search descends into objects and
// into objects held in arrays; it does not descend into a matched value.
func FindKey(v interface{}, key string) []interface{} {
	out := make([]interface{}, 0)
	findKey(v, key, &out)
	return out
}

func findKey(v interface{}, key string, out *[]interface{}) {
	switch node := v.(type) {
	case *Object:
		for _, k := range node.Keys {
			child := node.Values[k]
			if k == key {
				*out = append(*out, child)
				continue
			}
			findKey(child, key, out)
		}
	case []interface{}:
		for _, item := range node {
			if obj, ok := item.(*Object); ok {
				findKey(obj, key, out)
			}
		}
	}
}

// scalarString renders a decoded scalar as a table cell value.
func scalarString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case bool:
		if s {
			return "true", true
		}
		return "false", true
	}

	return "", false
}
