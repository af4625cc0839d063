package panel

import (
	"bytes"
	"fmt"
)

// Option is one choice of a select field.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// parseOptions reads an option listing. The payload is either a bare array
// or an object whose "data" holds one. Items may be strings, [value, label]
// pairs or records; an object "data" maps values to labels.
func parseOptions(body []byte) ([]Option, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	doc, err := decodeOrdered(body)
	if err != nil {
		return nil, fmt.Errorf("decoding options: %w", err)
	}

	data := doc
	if obj, ok := doc.(*object); ok {
		if msgs := messages(obj.get("errors")); len(msgs) > 0 {
			return nil, serverMessage(msgs[0])
		}
		data = obj.get("data")
	}

	switch d := data.(type) {
	case nil:
		return nil, nil
	case []any:
		opts := make([]Option, 0, len(d))
		for _, item := range d {
			opts = append(opts, optionFrom(item))
		}
		return opts, nil
	case *object:
		opts := make([]Option, 0, len(d.keys))
		for _, k := range d.keys {
			opts = append(opts, Option{Value: k, Label: cellText(d.values[k])})
		}
		return opts, nil
	}
	return nil, fmt.Errorf("unexpected options payload %T", data)
}

func optionFrom(item any) Option {
	switch t := item.(type) {
	case []any:
		switch len(t) {
		case 0:
			return Option{}
		case 1:
			v := cellText(t[0])
			return Option{Value: v, Label: v}
		}
		return Option{Value: cellText(t[0]), Label: cellText(t[1])}
	case *object:
		value := firstOf(t, "value", "name", "id")
		label := firstOf(t, "label", "display_name", "name", "value", "id")
		return Option{Value: value, Label: label}
	}
	v := cellText(item)
	return Option{Value: v, Label: v}
}

func firstOf(o *object, keys ...string) string {
	for _, k := range keys {
		if o.has(k) {
			return cellText(o.get(k))
		}
	}
	return ""
}
