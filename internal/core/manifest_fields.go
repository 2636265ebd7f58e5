package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"scoop-go/internal/shared"
	"scoop-go/internal/types"
)

// The types in this file decode the polymorphic shapes found in bucket
// manifests. They never leave this package: manifest_schema.go converts them
// into the plain structs of internal/types.

func isJSONNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

// stringList accepts a string or a list of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = stringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	if many == nil {
		many = []string{}
	}
	*l = many
	return nil
}

// scalarString accepts a string or a bare JSON number.
type scalarString string

func (s *scalarString) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = scalarString(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*s = scalarString(number.String())
	return nil
}

// stringMap accepts an object whose values are strings or other scalars.
// Non-string values keep their JSON text; null becomes an empty string.
type stringMap map[string]string

func (m *stringMap) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("expected object: %w", err)
	}
	out := make(stringMap, len(raw))
	for key, value := range raw {
		if isJSONNull(value) {
			out[key] = ""
			continue
		}
		var text string
		if err := json.Unmarshal(value, &text); err == nil {
			out[key] = text
			continue
		}
		out[key] = strings.TrimSpace(string(value))
	}
	*m = out
	return nil
}

type shorthandEntry struct {
	target string
	name   string
	args   []string
}

// decodeShorthand handles the bin/persist encodings: a bare string, a list of
// strings, or a list mixing strings and [target, name, args...] tuples.
func decodeShorthand(data []byte, field string) ([]shorthandEntry, error) {
	invalid := fmt.Errorf("invalid %s format", field)
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		return []shorthandEntry{shorthandFromString(single)}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, invalid
	}
	out := make([]shorthandEntry, 0, len(items))
	for _, item := range items {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			out = append(out, shorthandFromString(text))
			continue
		}
		var tuple []string
		if err := json.Unmarshal(item, &tuple); err != nil {
			return nil, invalid
		}
		if len(tuple) < 2 {
			return nil, fmt.Errorf("%w: expected at least 2 elements, got %d", invalid, len(tuple))
		}
		entry := shorthandEntry{target: tuple[0], name: tuple[1]}
		if len(tuple) > 2 {
			entry.args = append([]string{}, tuple[2:]...)
		}
		out = append(out, entry)
	}
	return out, nil
}

func shorthandFromString(value string) shorthandEntry {
	return shorthandEntry{target: value, name: shared.FileStem(value)}
}

type shimList []types.Bin

func (l *shimList) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		return nil
	}
	entries, err := decodeShorthand(data, "bin")
	if err != nil {
		return err
	}
	out := make(shimList, 0, len(entries))
	for _, entry := range entries {
		out = append(out, types.Bin{Target: entry.target, Name: entry.name, Args: entry.args})
	}
	*l = out
	return nil
}

type persistList []types.Persist

func (l *persistList) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		return nil
	}
	entries, err := decodeShorthand(data, "persist")
	if err != nil {
		return err
	}
	out := make(persistList, 0, len(entries))
	for _, entry := range entries {
		out = append(out, types.Persist{Target: entry.target, Name: entry.name})
	}
	*l = out
	return nil
}

// shortcutList decodes [target, name, args?, icon?] tuples.
type shortcutList []types.Shortcut

func (l *shortcutList) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		return nil
	}
	var tuples [][]string
	if err := json.Unmarshal(data, &tuples); err != nil {
		return errors.New("invalid shortcuts format")
	}
	out := make(shortcutList, 0, len(tuples))
	for _, tuple := range tuples {
		if len(tuple) < 2 {
			return fmt.Errorf("invalid shortcuts format: expected at least 2 elements, got %d", len(tuple))
		}
		shortcut := types.Shortcut{Target: tuple[0], Name: tuple[1]}
		if len(tuple) > 2 {
			shortcut.Args = tuple[2]
		}
		if len(tuple) > 3 {
			shortcut.Icon = tuple[3]
		}
		out = append(out, shortcut)
	}
	*l = out
	return nil
}

// licenseField accepts an SPDX identifier string or {identifier, url}.
type licenseField types.License

func (f *licenseField) UnmarshalJSON(data []byte) error {
	var identifier string
	if err := json.Unmarshal(data, &identifier); err == nil {
		*f = licenseField{Identifier: identifier}
		return nil
	}
	var object struct {
		Identifier string `json:"identifier"`
		URL        string `json:"url"`
	}
	if err := json.Unmarshal(data, &object); err != nil {
		return errors.New("invalid license format")
	}
	*f = licenseField{Identifier: object.Identifier, URL: object.URL}
	return nil
}

type sourceforgeField types.Sourceforge

func (f *sourceforgeField) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		project, path, _ := strings.Cut(text, "/")
		*f = sourceforgeField{Project: project, Path: path}
		return nil
	}
	var object struct {
		Project string `json:"project"`
		Path    string `json:"path"`
	}
	if err := json.Unmarshal(data, &object); err != nil {
		return errors.New("invalid sourceforge format")
	}
	*f = sourceforgeField{Project: object.Project, Path: object.Path}
	return nil
}

type checkverDocument struct {
	URL         string            `json:"url"`
	Regex       string            `json:"regex"`
	Re          string            `json:"re"`
	JSONPath    string            `json:"jsonpath"`
	JP          string            `json:"jp"`
	XPath       string            `json:"xpath"`
	Replace     string            `json:"replace"`
	Reverse     bool              `json:"reverse"`
	UserAgent   string            `json:"useragent"`
	GitHub      string            `json:"github"`
	Script      stringList        `json:"script"`
	Sourceforge *sourceforgeField `json:"sourceforge"`
}

// checkverField accepts "github", a bare regex string, or an object.
type checkverField types.Checkver

func (f *checkverField) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		if text == string(types.CheckverTemplateGitHub) {
			*f = checkverField{Template: types.CheckverTemplateGitHub}
			return nil
		}
		*f = checkverField{Regex: text}
		return nil
	}
	var doc checkverDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid checkver format: %w", err)
	}
	checkver := types.Checkver{
		URL:       doc.URL,
		Regex:     firstNonEmpty(doc.Regex, doc.Re),
		JSONPath:  firstNonEmpty(doc.JSONPath, doc.JP),
		XPath:     doc.XPath,
		Replace:   doc.Replace,
		Reverse:   doc.Reverse,
		UserAgent: doc.UserAgent,
		GitHub:    doc.GitHub,
		Script:    []string(doc.Script),
	}
	if doc.Sourceforge != nil {
		sf := types.Sourceforge(*doc.Sourceforge)
		checkver.Sourceforge = &sf
	}
	*f = checkverField(checkver)
	return nil
}

type hashExtractionDocument struct {
	Find     string `json:"find"`
	Regex    string `json:"regex"`
	JSONPath string `json:"jsonpath"`
	JP       string `json:"jp"`
	XPath    string `json:"xpath"`
	Mode     string `json:"mode"`
	Type     string `json:"type"`
	URL      string `json:"url"`
}

func (d hashExtractionDocument) normalize() types.HashExtraction {
	return types.HashExtraction{
		Regex:    firstNonEmpty(d.Find, d.Regex),
		JSONPath: firstNonEmpty(d.JSONPath, d.JP),
		XPath:    d.XPath,
		Mode:     types.HashExtractionMode(d.Mode),
		Type:     d.Type,
		URL:      d.URL,
	}
}

// hashExtractionList accepts one extraction object or a list of them.
type hashExtractionList []types.HashExtraction

func (l *hashExtractionList) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		return nil
	}
	var single hashExtractionDocument
	if err := json.Unmarshal(data, &single); err == nil {
		*l = hashExtractionList{single.normalize()}
		return nil
	}
	var many []hashExtractionDocument
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("invalid autoupdate hash format")
	}
	out := make(hashExtractionList, 0, len(many))
	for _, doc := range many {
		out = append(out, doc.normalize())
	}
	*l = out
	return nil
}

// suggestField accepts {"feature": app | [apps]} or a plain list of apps.
type suggestField []types.Suggestion

func (f *suggestField) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		return nil
	}
	var byFeature map[string]stringList
	if err := json.Unmarshal(data, &byFeature); err == nil {
		features := make([]string, 0, len(byFeature))
		for feature := range byFeature {
			features = append(features, feature)
		}
		sort.Strings(features)
		out := make(suggestField, 0, len(features))
		for _, feature := range features {
			out = append(out, types.Suggestion{Feature: feature, Apps: []string(byFeature[feature])})
		}
		*f = out
		return nil
	}
	var apps stringList
	if err := json.Unmarshal(data, &apps); err != nil {
		return errors.New("invalid suggest format")
	}
	*f = suggestField{{Apps: []string(apps)}}
	return nil
}

type installerDocument struct {
	File   string     `json:"file"`
	Args   stringList `json:"args"`
	Keep   bool       `json:"keep"`
	Script stringList `json:"script"`
}

func (d *installerDocument) normalize() *types.Installer {
	if d == nil {
		return nil
	}
	return &types.Installer{File: d.File, Args: []string(d.Args), Keep: d.Keep, Script: []string(d.Script)}
}

type uninstallerDocument struct {
	File   string     `json:"file"`
	Args   stringList `json:"args"`
	Script stringList `json:"script"`
}

func (d *uninstallerDocument) normalize() *types.Uninstaller {
	if d == nil {
		return nil
	}
	return &types.Uninstaller{File: d.File, Args: []string(d.Args), Script: []string(d.Script)}
}

type psmoduleDocument struct {
	Name string `json:"name"`
}

func (d *psmoduleDocument) normalize() *types.Psmodule {
	if d == nil {
		return nil
	}
	return &types.Psmodule{Name: d.Name}
}

// ParseDownloadURL splits the "#/filename" rename suffix off a manifest URL.
func ParseDownloadURL(value string) types.DownloadURL {
	value = strings.TrimSpace(value)
	if idx := strings.LastIndex(value, "#/"); idx >= 0 {
		return types.DownloadURL{URL: value[:idx], FileName: value[idx+2:]}
	}
	return types.DownloadURL{URL: value}
}

func downloadURLs(values stringList) []types.DownloadURL {
	if values == nil {
		return nil
	}
	out := make([]types.DownloadURL, 0, len(values))
	for _, value := range values {
		out = append(out, ParseDownloadURL(value))
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
