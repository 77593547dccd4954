package metadata

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// EncodeTable renders a table as the YAML content of a version.
func EncodeTable(t Table) (string, error) {
	return encode("table", t)
}

// DecodeTable parses a table version.
func DecodeTable(content string) (Table, error) {
	t := Table{}
	if err := yaml.Unmarshal([]byte(content), &t); err != nil {
		return Table{}, fmt.Errorf("decode table: %w", err)
	}
	if t.Name == "" {
		return Table{}, fmt.Errorf("decode table: missing name")
	}
	return t, nil
}

// EncodeView renders a view as the YAML content of a version.
func EncodeView(v View) (string, error) {
	return encode("view", v)
}

// DecodeView parses a view version.
func DecodeView(content string) (View, error) {
	v := View{}
	if err := yaml.Unmarshal([]byte(content), &v); err != nil {
		return View{}, fmt.Errorf("decode view: %w", err)
	}
	if v.Name == "" {
		return View{}, fmt.Errorf("decode view: missing name")
	}
	return v, nil
}

// EncodeProps renders cluster properties.
func EncodeProps(props map[string]string) (string, error) {
	return encode("props", props)
}

// DecodeProps parses cluster properties. Empty content means no properties.
func DecodeProps(content string) (map[string]string, error) {
	props := make(map[string]string)
	if err := yaml.Unmarshal([]byte(content), &props); err != nil {
		return nil, fmt.Errorf("decode props: %w", err)
	}
	return props, nil
}

func encode(kind string, v any) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", kind, err)
	}
	return string(out), nil
}
