package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// SaveAuthorizationCode stores code under authorizationCode in the YAML file
// at path, creating the file if needed. Other keys, their order and comments
// are left as they are.
func SaveAuthorizationCode(path, code string) error {
	perm := fs.FileMode(0600)

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		data = nil
	case err != nil:
		return fmt.Errorf("reading config file: %w", err)
	default:
		if info, statErr := os.Stat(path); statErr == nil {
			perm = info.Mode().Perm()
		}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: top level of %s is not a mapping", ErrInvalidConfig, path)
	}
	setScalar(root, keyAuthorizationCode, code)

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encoding config file: %w", err)
	}

	if err := os.WriteFile(path, out, perm); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// setScalar sets key to value in a mapping node, appending the pair if missing.
func setScalar(mapping *yaml.Node, key, value string) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1].SetString(value)
			return
		}
	}

	k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	v := &yaml.Node{}
	v.SetString(value)
	mapping.Content = append(mapping.Content, k, v)
}
