package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// SaveEngine rewrites the engine section of the config file. Comments and
// formatting in other sections are preserved by editing the yaml.Node tree.
func SaveEngine(configPath string, engine EngineConfig) error {
	return saveSection(configPath, "engine", buildEngineNode(engine))
}

// SaveFlags rewrites the flags section of the config file.
func SaveFlags(configPath string, values map[string]bool) error {
	node := &yaml.Node{}
	if err := node.Encode(values); err != nil {
		return fmt.Errorf("building flags node: %w", err)
	}
	return saveSection(configPath, "flags", node)
}

func buildEngineNode(e EngineConfig) *yaml.Node {
	// Durations are written as "150ms" so viper's duration hook reads them back.
	pairs := [][2]string{
		{"estimated_item_height", formatFloat(e.EstimatedItemHeight)},
		{"container_height", formatFloat(e.ContainerHeight)},
		{"overscan", strconv.Itoa(e.Overscan)},
		{"item_gap", formatFloat(e.ItemGap)},
		{"scroll_idle_delay", e.ScrollIdleDelay.String()},
		{"measure_debounce", e.MeasureDebounce.String()},
		{"batch_chunk_size", strconv.Itoa(e.BatchChunkSize)},
	}

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range pairs {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: p[0]},
			&yaml.Node{Kind: yaml.ScalarNode, Value: p[1]},
		)
	}
	return node
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// saveSection replaces (or appends) the top-level key in the config file
// with value and writes the result atomically.
func saveSection(configPath, key string, value *yaml.Node) error {
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	if doc.Kind == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode}},
		}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("config root must be a mapping")
	}
	setMappingKey(doc.Content[0], key, value)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = enc.Close()

	return writeAtomic(configPath, buf.Bytes())
}

func setMappingKey(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			// Keep the comment that sits on the existing value.
			value.HeadComment = mapping.Content[i+1].HeadComment
			mapping.Content[i+1] = value
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		value,
	)
}

// writeAtomic writes data to a temp file next to path and renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".vscroll.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
