// Package mapparser loads system-map documents. The parser is deliberately
// tolerant: malformed input is converted into issues at this layer and a
// best-effort partial document is returned, so one broken map never stops
// the rest of the audit.
package mapparser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mapaudit/mapaudit/internal/domain"
)

// Parser implements domain.MapParser using a token-level JSON walk. The
// token walk (rather than a plain Unmarshal) is what lets us detect
// duplicate keys, which encoding/json silently resolves last-value-wins.
type Parser struct{}

func New() *Parser { return &Parser{} }

// Parse reads one document. It never returns an error: every failure mode
// becomes an issue and downstream validators work with whatever parsed.
func (p *Parser) Parse(path, projectRoot string) (*domain.SystemMap, *domain.RootManifest, []domain.Issue) {
	relPath := path
	if projectRoot != "" {
		if rel, err := filepath.Rel(projectRoot, path); err == nil {
			relPath = filepath.ToSlash(rel)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, []domain.Issue{{
			Kind:     domain.KindParseError,
			Severity: domain.SeverityError,
			File:     relPath,
			Message:  fmt.Sprintf("reading map file: %v", err),
		}}
	}

	var issues []domain.Issue
	dec := json.NewDecoder(strings.NewReader(string(data)))
	root, err := decodeTree(dec, "", &issues)
	if err == nil {
		// A document is exactly one value; anything after it is a syntax
		// error json.Unmarshal would have rejected.
		if _, trailing := dec.Token(); !errors.Is(trailing, io.EOF) {
			err = fmt.Errorf("trailing data after the top-level value")
		}
	}
	if err != nil {
		issues = append(issues, domain.Issue{
			Kind:       domain.KindParseError,
			Severity:   domain.SeverityError,
			File:       relPath,
			Message:    fmt.Sprintf("invalid JSON: %v", err),
			Suggestion: "fix the syntax; the file was skipped",
		})
		return nil, nil, stamp(issues, relPath)
	}

	obj, ok := root.(map[string]any)
	if !ok {
		issues = append(issues, domain.Issue{
			Kind:     domain.KindStructureInvalid,
			Severity: domain.SeverityError,
			File:     relPath,
			Message:  "top-level value must be an object",
		})
		return nil, nil, stamp(issues, relPath)
	}

	if _, isManifest := obj["domains"]; isManifest {
		manifest := buildManifest(obj, relPath, &issues)
		return nil, manifest, stamp(issues, relPath)
	}
	systemMap := buildSystemMap(obj, relPath, &issues)
	return systemMap, nil, stamp(issues, relPath)
}

// decodeTree walks the token stream into nested map[string]any / []any
// values, recording exactly one duplicate-key warning per conflicting key.
// Last value wins, matching what a plain Unmarshal would have produced.
func decodeTree(dec *json.Decoder, pointer string, issues *[]domain.Issue) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFrom(dec, tok, pointer, issues)
}

func decodeFrom(dec *json.Decoder, tok json.Token, pointer string, issues *[]domain.Issue) (any, error) {
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil // string, number, bool or null
	}

	switch delim {
	case '{':
		obj := make(map[string]any)
		seen := make(map[string]int)
		var order []string
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key := keyTok.(string)
			if seen[key] == 0 {
				order = append(order, key)
			}
			seen[key]++
			value, err := decodeTree(dec, pointer+"/"+key, issues)
			if err != nil {
				return nil, err
			}
			obj[key] = value
		}
		if _, err := dec.Token(); err != nil { // consume '}'
			return nil, err
		}
		for _, key := range order {
			if seen[key] > 1 {
				*issues = append(*issues, domain.Issue{
					Kind:       domain.KindDuplicateKey,
					Severity:   domain.SeverityWarning,
					Pointer:    pointer + "/" + key,
					Message:    fmt.Sprintf("key %q appears %d times; the last value wins", key, seen[key]),
					Suggestion: "remove the duplicate entries",
				})
			}
		}
		return obj, nil

	case '[':
		var arr []any
		for i := 0; dec.More(); i++ {
			item, err := decodeTree(dec, fmt.Sprintf("%s/%d", pointer, i), issues)
			if err != nil {
				return nil, err
			}
			arr = append(arr, item)
		}
		if _, err := dec.Token(); err != nil { // consume ']'
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func buildSystemMap(obj map[string]any, relPath string, issues *[]domain.Issue) *domain.SystemMap {
	m := &domain.SystemMap{File: relPath}
	m.Name = requireString(obj, "name", relPath, issues)
	m.LastUpdated = optionalString(obj, "lastUpdated", relPath, issues)
	m.Components = stringMapping(obj, "components", relPath, issues)
	m.APIEndpoints = stringMapping(obj, "apiEndpoints", relPath, issues)
	m.Database = stringMapping(obj, "database", relPath, issues)
	m.Flows = flowMapping(obj, relPath, issues)
	return m
}

func buildManifest(obj map[string]any, relPath string, issues *[]domain.Issue) *domain.RootManifest {
	manifest := &domain.RootManifest{File: relPath}
	manifest.AppName = requireString(obj, "appName", relPath, issues)
	manifest.Version = optionalString(obj, "version", relPath, issues)

	raw, ok := obj["domains"].(map[string]any)
	if !ok {
		*issues = append(*issues, structureIssue(relPath, "/domains", "domains must be an object"))
		return manifest
	}
	manifest.Domains = make(map[string]domain.DomainRef, len(raw))
	for _, name := range sortedKeys(raw) {
		entry, ok := raw[name].(map[string]any)
		if !ok {
			*issues = append(*issues, structureIssue(relPath, "/domains/"+name, "domain entry must be an object with a path"))
			continue
		}
		ref := domain.DomainRef{}
		if desc, ok := entry["description"].(string); ok {
			ref.Description = desc
		}
		path, ok := entry["path"].(string)
		if !ok || path == "" {
			*issues = append(*issues, structureIssue(relPath, "/domains/"+name+"/path", "path must be a non-empty string"))
			continue
		}
		ref.Path = path
		manifest.Domains[name] = ref
	}
	return manifest
}

// requireString fetches a mandatory non-empty string field.
func requireString(obj map[string]any, key, relPath string, issues *[]domain.Issue) string {
	raw, present := obj[key]
	if !present {
		*issues = append(*issues, structureIssue(relPath, "/"+key, fmt.Sprintf("required field %q is missing", key)))
		return ""
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		*issues = append(*issues, structureIssue(relPath, "/"+key, fmt.Sprintf("%q must be a non-empty string", key)))
		return ""
	}
	return s
}

func optionalString(obj map[string]any, key, relPath string, issues *[]domain.Issue) string {
	raw, present := obj[key]
	if !present || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		*issues = append(*issues, structureIssue(relPath, "/"+key, fmt.Sprintf("%q must be a string", key)))
		return ""
	}
	return s
}

// stringMapping extracts a key→string mapping. A list or scalar where the
// mapping should be is a structure error; non-string values inside an
// otherwise valid mapping are reported individually and skipped, keeping
// the valid entries.
func stringMapping(obj map[string]any, key, relPath string, issues *[]domain.Issue) map[string]string {
	raw, present := obj[key]
	if !present || raw == nil {
		return nil
	}
	nested, ok := raw.(map[string]any)
	if !ok {
		*issues = append(*issues, structureIssue(relPath, "/"+key, fmt.Sprintf("%q must be a mapping, got %s", key, typeName(raw))))
		return nil
	}
	out := make(map[string]string, len(nested))
	for _, k := range sortedKeys(nested) {
		v, ok := nested[k].(string)
		if !ok {
			*issues = append(*issues, structureIssue(relPath, "/"+key+"/"+k, fmt.Sprintf("value for %q must be a string, got %s", k, typeName(nested[k]))))
			continue
		}
		out[k] = v
	}
	return out
}

func flowMapping(obj map[string]any, relPath string, issues *[]domain.Issue) map[string]domain.Flow {
	raw, present := obj["flows"]
	if !present || raw == nil {
		return nil
	}
	nested, ok := raw.(map[string]any)
	if !ok {
		*issues = append(*issues, structureIssue(relPath, "/flows", fmt.Sprintf("flows must be a mapping, got %s", typeName(raw))))
		return nil
	}
	out := make(map[string]domain.Flow, len(nested))
	for _, name := range sortedKeys(nested) {
		entry, ok := nested[name].(map[string]any)
		if !ok {
			*issues = append(*issues, structureIssue(relPath, "/flows/"+name, "flow must be an object with steps"))
			continue
		}
		flow := domain.Flow{}
		if desc, ok := entry["description"].(string); ok {
			flow.Description = desc
		}
		steps, ok := entry["steps"].([]any)
		if !ok {
			*issues = append(*issues, structureIssue(relPath, "/flows/"+name+"/steps", "steps must be a list"))
			continue
		}
		for i, rawStep := range steps {
			step, ok := rawStep.(map[string]any)
			if !ok {
				*issues = append(*issues, structureIssue(relPath, fmt.Sprintf("/flows/%s/steps/%d", name, i), "step must be an object"))
				continue
			}
			fs := domain.FlowStep{}
			if c, ok := step["component"].(string); ok {
				fs.Component = c
			}
			if e, ok := step["endpoint"].(string); ok {
				fs.Endpoint = e
			}
			flow.Steps = append(flow.Steps, fs)
		}
		out[name] = flow
	}
	return out
}

func structureIssue(relPath, pointer, message string) domain.Issue {
	return domain.Issue{
		Kind:     domain.KindStructureInvalid,
		Severity: domain.SeverityError,
		File:     relPath,
		Pointer:  pointer,
		Message:  message,
	}
}

// stamp fills in the source file on issues emitted before it was known
// (the duplicate-key warnings from the token walk).
func stamp(issues []domain.Issue, relPath string) []domain.Issue {
	for i := range issues {
		if issues[i].File == "" {
			issues[i].File = relPath
		}
	}
	return issues
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64, json.Number:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
