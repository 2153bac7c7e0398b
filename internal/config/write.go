package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/serialmon/internal/widget"
)

const defaultHeader = `# serialmon configuration
# port: leave empty to pick from connected devices at startup
`

// WriteDefault writes cfg to path. It refuses to overwrite an existing file
// unless force is set.
func WriteDefault(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	doc := fileConfig{
		Version:     cfg.Version,
		Port:        cfg.Port,
		ReadTimeout: cfg.ReadTimeout.String(),
		Monitor:     fileMonitor{Interval: cfg.Monitor.Interval.String()},
		Server:      cfg.Server,
		Output:      cfg.Output,
		Widgets:     cfg.Widgets,
	}

	var buf strings.Builder
	buf.WriteString(defaultHeader)
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// fileConfig mirrors Config with durations rendered as strings so the file
// reads "100ms" rather than a nanosecond count.
type fileConfig struct {
	Version     int           `yaml:"version"`
	Port        string        `yaml:"port"`
	ReadTimeout string        `yaml:"read_timeout"`
	Monitor     fileMonitor   `yaml:"monitor"`
	Server      ServerConfig  `yaml:"server"`
	Output      OutputConfig  `yaml:"output"`
	Widgets     []widget.Spec `yaml:"widgets"`
}

type fileMonitor struct {
	Interval string `yaml:"interval"`
}

// SetPort updates the port key in an existing config file, preserving the
// rest of the document and its comments.
func SetPort(configPath, port string) error {
	return setScalar(configPath, "port", port)
}

// AddWidget appends a widget spec to the widgets list in an existing config
// file, preserving the rest of the document. A spec with the same data key
// and type already present is left alone.
func AddWidget(configPath string, spec widget.Spec) error {
	root, err := readNode(configPath)
	if err != nil {
		return err
	}
	doc := root.Content[0]

	list := findMapValue(doc, "widgets")
	if list == nil || list.Kind != yaml.SequenceNode {
		list = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		setMapValue(doc, "widgets", list)
	}

	for _, item := range list.Content {
		key := findMapValue(item, "data_key")
		typ := findMapValue(item, "type")
		if key != nil && typ != nil && key.Value == spec.DataKey && typ.Value == string(spec.Type) {
			return nil
		}
	}

	var item yaml.Node
	if err := item.Encode(spec); err != nil {
		return fmt.Errorf("failed to encode widget: %w", err)
	}
	list.Content = append(list.Content, &item)

	return writeNode(configPath, root)
}

func setScalar(configPath, key, value string) error {
	root, err := readNode(configPath)
	if err != nil {
		return err
	}
	setMapValue(root.Content[0], key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value})
	return writeNode(configPath, root)
}

func readNode(configPath string) (*yaml.Node, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("invalid YAML document structure")
	}
	if root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected mapping at document root")
	}
	return &root, nil
}

func writeNode(configPath string, root *yaml.Node) error {
	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.WriteFile(configPath, []byte(buf.String()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// findMapValue finds the value node for a key in a mapping node.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func setMapValue(node *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			node.Content[i+1] = value
			return
		}
	}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}
