package instance

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// EncodeMetaData renders the online registration payload of an instance.
func EncodeMetaData(md MetaData) (string, error) {
	out, err := yaml.Marshal(md)
	if err != nil {
		return "", fmt.Errorf("encode instance metadata: %w", err)
	}
	return string(out), nil
}

// DecodeMetaData parses an online registration payload. Identity comes from the key.
func DecodeMetaData(instanceType, instanceID, value string) (MetaData, error) {
	md := MetaData{}
	if err := yaml.Unmarshal([]byte(value), &md); err != nil {
		return MetaData{}, fmt.Errorf("decode instance metadata of %s: %w", instanceID, err)
	}
	md.ID = instanceID
	md.Type = instanceType
	return md, nil
}

// EncodeLabels renders labels as a YAML sequence.
func EncodeLabels(labels []string) (string, error) {
	if labels == nil {
		labels = []string{}
	}
	out, err := yaml.Marshal(labels)
	if err != nil {
		return "", fmt.Errorf("encode labels: %w", err)
	}
	return string(out), nil
}

// DecodeLabels parses a YAML sequence of labels. An empty value means no labels.
func DecodeLabels(value string) ([]string, error) {
	var labels []string
	if err := yaml.Unmarshal([]byte(value), &labels); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	return labels, nil
}
