package report

import (
	"encoding/json"
	"os"
	"strings"

	"autopkgwrapper/internal/logging"
)

// ParseJSON parses a pre-serialised summary of the form
// {"uploads": [...], "policies": [...], "errors": [...], "recipes": N}.
// Missing or mistyped keys are skipped; invalid JSON yields an empty Result.
func ParseJSON(path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.ReportsWarn("Failed to read %s: %v", path, err)
		return Result{}
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		logging.ReportsWarn("Failed to parse JSON %s: %v", path, err)
		return Result{}
	}

	var res Result
	for _, raw := range rawList(doc["uploads"]) {
		if u, ok := decodeUpload(raw); ok {
			res.Uploads = append(res.Uploads, u)
		}
	}
	for _, raw := range rawList(doc["policies"]) {
		if p, ok := decodePolicy(raw); ok {
			res.Policies = append(res.Policies, p)
		}
	}
	for _, raw := range rawList(doc["errors"]) {
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil {
			res.Errors = append(res.Errors, msg)
			continue
		}
		var obj struct {
			Recipe  string `json:"recipe"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			res.Errors = append(res.Errors, string(raw))
			continue
		}
		if obj.Message == "" {
			obj.Message = string(raw)
		}
		res.Errors = append(res.Errors, obj.Message)
		res.ErrorRows = append(res.ErrorRows, ErrorRow{
			RecipeName: orDash(obj.Recipe),
			ErrorType:  Classify(obj.Message),
		})
	}
	if raw, ok := doc["recipes"]; ok {
		var n int
		if err := json.Unmarshal(raw, &n); err == nil {
			res.Recipes = n
		}
	}
	return res
}

// rawList returns the elements of a JSON array, or nil for anything else.
func rawList(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}

// decodeUpload accepts {"name", "version"} objects or bare name strings.
func decodeUpload(raw json.RawMessage) (Upload, bool) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return Upload{Name: strings.TrimSpace(name), Version: "-"}, true
	}
	var u Upload
	if err := json.Unmarshal(raw, &u); err != nil {
		return Upload{}, false
	}
	return u, true
}

// decodePolicy accepts {"name", "action"} objects or bare name strings.
func decodePolicy(raw json.RawMessage) (Policy, bool) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return Policy{Name: strings.TrimSpace(name), Action: "-"}, true
	}
	var p Policy
	if err := json.Unmarshal(raw, &p); err != nil {
		return Policy{}, false
	}
	return p, true
}
