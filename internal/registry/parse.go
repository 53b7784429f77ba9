package registry

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/gjson"

	"github.com/vango-dev/uikit/internal/errors"
)

// requiredFields are the top-level keys every registry document carries.
var requiredFields = []string{"name", "homepage", "items"}

// ParseRegistry parses and validates a registry document. A document with
// a missing top-level field or an item of unknown type is rejected whole.
func ParseRegistry(data []byte) (*Registry, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("E110").WithDetail("Registry document is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, errors.New("E110").WithDetail("Registry document must be a JSON object")
	}
	for _, field := range requiredFields {
		if !root.Get(field).Exists() {
			return nil, errors.New("E110").
				WithDetail("Registry document is missing the '" + field + "' field")
		}
	}
	if !root.Get("items").IsArray() {
		return nil, errors.New("E110").WithDetail("'items' must be an array")
	}

	s, err := loadSchemas()
	if err != nil {
		return nil, errors.New("E110").Wrap(err)
	}
	if err := validate(s.registry, data); err != nil {
		return nil, errors.New("E110").WithDetail(schemaDetail(err))
	}

	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, errors.New("E110").WithDetail(err.Error())
	}
	if reg.Items == nil {
		reg.Items = []*Item{}
	}
	return &reg, nil
}

// ParseItem parses and validates a single registry item document.
func ParseItem(data []byte) (*Item, error) {
	s, err := loadSchemas()
	if err != nil {
		return nil, errors.New("E113").Wrap(err)
	}
	if err := validate(s.item, data); err != nil {
		return nil, errors.New("E113").WithDetail(schemaDetail(err))
	}

	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, errors.New("E113").WithDetail(err.Error())
	}
	return &item, nil
}

// ReadURLList reads a JSON array of registry URLs. Comments are not
// accepted; the file is plain JSON.
func ReadURLList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E114").
			WithDetail("Could not read " + path).
			WithSuggestion("Create " + path + " with a JSON array of registry URLs").
			Wrap(err)
	}

	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, errors.New("E114").
			WithDetail(path + ": " + err.Error())
	}

	out := urls[:0]
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out, nil
}

// schemaDetail flattens a validation failure onto one line.
func schemaDetail(err error) string {
	var ve *jsonschema.ValidationError
	if !stderrors.As(err, &ve) {
		return err.Error()
	}
	lines := strings.Split(strings.TrimSpace(ve.Error()), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
	}
	return strings.Join(lines, "; ")
}
