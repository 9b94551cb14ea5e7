// Package frontmatter parses a SKILL.md file's YAML frontmatter block per
// spec.md §6.2: recognized keys are "name" (string), "description" (string,
// multiline allowed), and an optional free-form nested "metadata" object.
//
// The raw JSON blob is always kept (spec.md §9's "keep the raw JSON blob and
// expose the typed view as a validated projection") and only validated
// fields are projected out, so unknown frontmatter keys from newer clients
// are never silently discarded.
package frontmatter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/clawdhub/clawdhub/internal/registry/spec"
)

const delimiter = "---"

// Parsed is the result of splitting a SKILL.md file into its frontmatter and
// body.
type Parsed struct {
	Data spec.FrontmatterData
	Name string
	Body string
}

// Parse splits raw SKILL.md bytes into frontmatter + body. A file with no
// frontmatter block is valid: Data is zero-valued and Body is the whole file.
func Parse(raw []byte) (Parsed, error) {
	text := string(raw)
	lines := strings.Split(text, "\n")

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != delimiter {
		return Parsed{Body: text}, nil
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delimiter {
			end = i
			break
		}
	}
	if end == -1 {
		return Parsed{Body: text}, nil
	}

	fmBlock := strings.Join(lines[1:end], "\n")
	body := strings.Join(lines[end+1:], "\n")
	body = strings.TrimPrefix(body, "\n")

	raw2 := map[string]any{}
	if err := yaml.Unmarshal([]byte(fmBlock), &raw2); err != nil {
		return Parsed{}, fmt.Errorf("%w: invalid YAML frontmatter: %v", spec.ErrValidation, err)
	}

	jsonBytes, err := yamlMapToJSON(raw2)
	if err != nil {
		return Parsed{}, fmt.Errorf("%w: %v", spec.ErrValidation, err)
	}

	fd := spec.FrontmatterData{Raw: raw2}
	if v := gjson.GetBytes(jsonBytes, "description"); v.Exists() {
		fd.Description = v.String()
	}
	if v := gjson.GetBytes(jsonBytes, "metadata"); v.Exists() && v.IsObject() {
		if m, ok := v.Value().(map[string]any); ok {
			fd.Metadata = m
		}
	}

	name := ""
	if v := gjson.GetBytes(jsonBytes, "name"); v.Exists() {
		name = v.String()
	}

	return Parsed{Data: fd, Name: name, Body: body}, nil
}

// HeaderText renders the frontmatter (minus the bulky "metadata" blob) as a
// flat "key: value" header block, used by the publish pipeline to build the
// text handed to the embeddings provider (spec.md §4.1 step 2).
func HeaderText(fd spec.FrontmatterData) (string, error) {
	jsonBytes, err := yamlMapToJSON(fd.Raw)
	if err != nil {
		return "", err
	}
	withoutMetadata, err := sjson.DeleteBytes(jsonBytes, "metadata")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	result := gjson.ParseBytes(withoutMetadata)
	result.ForEach(func(key, value gjson.Result) bool {
		b.WriteString(key.String())
		b.WriteString(": ")
		b.WriteString(value.String())
		b.WriteString("\n")
		return true
	})
	return b.String(), nil
}

// yamlMapToJSON converts a YAML-decoded map[string]any into the JSON
// document gjson/sjson operate on. yaml.v3 decodes mappings into
// map[string]any (unlike v2's map[interface{}]interface{}), so this is a
// direct, lossless re-encode.
func yamlMapToJSON(m map[string]any) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("frontmatter is not JSON-representable: %w", err)
	}
	return b, nil
}
