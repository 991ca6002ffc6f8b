package frontmatter

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"
)

// Fingerprint returns a stable content fingerprint of text.
//
// For documents with frontmatter the fields are re-serialized with sorted keys
// and LF newlines, without any existing fingerprint field, so that formatting
// changes in the YAML do not change the result. Other documents hash as body only.
func Fingerprint(text string) (string, error) {
	block, ok, err := Split(text)
	if err != nil {
		return "", err
	}
	if !ok {
		return mdfp.CalculateFingerprintFromParts("", text), nil
	}

	fields, err := ParseYAML(block.Raw)
	if err != nil {
		return "", fmt.Errorf("parse frontmatter: %w", err)
	}
	delete(fields, mdfp.FingerprintField)

	canonical := ""
	if len(fields) > 0 {
		out, err := serializeSorted(fields)
		if err != nil {
			return "", err
		}
		canonical = strings.TrimSuffix(out, "\n")
	}
	return mdfp.CalculateFingerprintFromParts(canonical, text[block.End:]), nil
}

func serializeSorted(fields map[string]any) (string, error) {
	node, err := nodeFromMap(fields)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		_ = enc.Close()
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func nodeFromMap(m map[string]any) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		val, err := nodeFromAny(m[k])
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, val)
	}
	return n, nil
}

func nodeFromAny(v any) (*yaml.Node, error) {
	switch vv := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: vv}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(vv)}, nil
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(vv)}, nil
	case map[string]any:
		return nodeFromMap(vv)
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range vv {
			node, err := nodeFromAny(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, node)
		}
		return seq, nil
	default:
		var node yaml.Node
		if err := node.Encode(v); err != nil {
			return nil, err
		}
		return &node, nil
	}
}
