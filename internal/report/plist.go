package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"howett.net/plist"

	"autopkgwrapper/internal/logging"
)

// Summary result keys written by the JamfUploader processors.
const (
	keyPackageUploader = "jamfpackageuploader_summary_result"
	keyPolicyUploader  = "jamfpolicyuploader_summary_result"
)

// blockKind tags a summary_results block with the decoder that handles it.
type blockKind int

const (
	blockUnknown blockKind = iota
	blockPackageUpload
	blockPolicyUpload
	blockPolicyTable
)

func (k blockKind) String() string {
	switch k {
	case blockPackageUpload:
		return "package-upload"
	case blockPolicyUpload:
		return "policy-upload"
	case blockPolicyTable:
		return "policy-table"
	default:
		return "unknown"
	}
}

// summaryBlock is one entry of a report's summary_results mapping.
type summaryBlock struct {
	Key         string
	Kind        blockKind
	SummaryText string
	Header      []string
	Rows        []map[string]interface{}
}

// plistReport is the subset of an autopkg report plist read here. Blocks are
// decoded loosely so one odd block cannot spoil the whole file.
type plistReport struct {
	Failures       []interface{}          `plist:"failures"`
	SummaryResults map[string]interface{} `plist:"summary_results"`
}

// decodeBlock converts a raw summary_results value and tags it. Values that
// are not dictionaries are blockUnknown.
func decodeBlock(key string, raw interface{}) summaryBlock {
	b := summaryBlock{Key: key}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return b
	}
	b.SummaryText = stringOf(m["summary_text"])
	if hdr, ok := m["header"].([]interface{}); ok {
		for _, h := range hdr {
			b.Header = append(b.Header, stringOf(h))
		}
	}
	if rows, ok := m["data_rows"].([]interface{}); ok {
		for _, r := range rows {
			if row, ok := r.(map[string]interface{}); ok {
				b.Rows = append(b.Rows, row)
			}
		}
	}
	b.Kind = classifyBlock(key, b)
	return b
}

// classifyBlock picks the decoder for a block: the two known uploader keys
// first, then the generic policy-table heuristic for anything with rows.
func classifyBlock(key string, b summaryBlock) blockKind {
	switch key {
	case keyPackageUploader:
		return blockPackageUpload
	case keyPolicyUploader:
		return blockPolicyUpload
	}
	if len(b.Rows) == 0 {
		return blockUnknown
	}
	if strings.Contains(strings.ToLower(key), "policy") ||
		strings.Contains(strings.ToLower(b.SummaryText), "policy") {
		return blockPolicyTable
	}
	for _, h := range b.Header {
		if strings.Contains(strings.ToLower(h), "policy") {
			return blockPolicyTable
		}
	}
	return blockUnknown
}

// plistParser carries per-file state across blocks: package rows discover the
// recipe identifier that later policy rows reuse.
type plistParser struct {
	recipeName string
	recipeURL  string
	identifier string
	res        Result
}

// ParsePlist parses one autopkg report plist (XML or binary). Recipe names
// are inferred from the file name and resolved through links when given.
// Unreadable or malformed files yield an empty Result.
func ParsePlist(path string, links LinkMap) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.ReportsWarn("Failed to read %s: %v", path, err)
		return Result{}
	}
	var rep plistReport
	if _, err := plist.Unmarshal(data, &rep); err != nil {
		logging.ReportsWarn("Failed to parse plist %s: %v", path, err)
		return Result{}
	}

	name := links.Resolve(InferRecipeIdentifier(path))
	p := &plistParser{recipeName: name, recipeURL: links.URL(name)}

	for _, b := range orderedBlocks(rep.SummaryResults) {
		logging.ReportsDebug("%s: block %s is %s with %d row(s)", path, b.Key, b.Kind, len(b.Rows))
		switch b.Kind {
		case blockPackageUpload:
			p.packageUpload(b)
		case blockPolicyUpload:
			p.policyUpload(b)
		case blockPolicyTable:
			p.policyTable(b)
		}
	}
	for _, f := range rep.Failures {
		p.failure(f)
	}
	return p.res
}

// orderedBlocks decodes every block and orders them package uploads first,
// then policy uploads, then tables, each group by key.
func orderedBlocks(raw map[string]interface{}) []summaryBlock {
	blocks := make([]summaryBlock, 0, len(raw))
	for key, v := range raw {
		b := decodeBlock(key, v)
		if b.Kind == blockUnknown {
			continue
		}
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Kind != blocks[j].Kind {
			return blocks[i].Kind < blocks[j].Kind
		}
		return blocks[i].Key < blocks[j].Key
	})
	return blocks
}

func (p *plistParser) packageUpload(b summaryBlock) {
	for _, row := range b.Rows {
		name := orDash(firstString(row, "name", "pkg_display_name"))
		version := orDash(firstString(row, "version"))
		p.res.Uploads = append(p.res.Uploads, Upload{Name: name, Version: version})

		if id := identifierFromCachePath(firstString(row, "pkg_path")); id != "" {
			p.identifier = id
		}
		p.res.UploadRows = append(p.res.UploadRows, UploadRow{
			RecipeName:       p.recipeName,
			RecipeIdentifier: orDash(p.identifier),
			RecipeURL:        p.recipeURL,
			Package:          orDash(firstString(row, "pkg_name", "pkg_display_name")),
			Version:          version,
		})
	}
}

func (p *plistParser) policyUpload(b summaryBlock) {
	for _, row := range b.Rows {
		name := firstString(row, "policy", "policy_name", "name", "title")
		if name == "" {
			continue
		}
		p.addPolicy(name, "-")
	}
}

func (p *plistParser) policyTable(b summaryBlock) {
	for _, row := range b.Rows {
		name := firstString(row, "policy_name", "name", "title")
		if name == "" {
			continue
		}
		p.addPolicy(name, orDash(firstString(row, "action", "status", "result")))
	}
}

func (p *plistParser) addPolicy(name, action string) {
	p.res.Policies = append(p.res.Policies, Policy{Name: name, Action: action})
	p.res.PolicyRows = append(p.res.PolicyRows, PolicyRow{
		RecipeName:       p.recipeName,
		RecipeIdentifier: orDash(p.identifier),
		RecipeURL:        p.recipeURL,
		Policy:           name,
	})
}

func (p *plistParser) failure(f interface{}) {
	msg, rec := "", p.recipeName
	if m, ok := f.(map[string]interface{}); ok {
		msg = stringOf(m["message"])
		if msg == "" {
			raw, _ := json.Marshal(m)
			msg = string(raw)
		}
		if r := stringOf(m["recipe"]); r != "" {
			rec = r
		}
	} else {
		msg = stringOf(f)
	}
	p.res.Errors = append(p.res.Errors, msg)
	p.res.ErrorRows = append(p.res.ErrorRows, ErrorRow{RecipeName: rec, ErrorType: Classify(msg)})
}

// identifierFromCachePath returns the directory directly under "/cache/" in
// an autopkg cache path, which is the recipe identifier.
func identifierFromCachePath(path string) string {
	_, after, found := strings.Cut(strings.TrimSpace(path), "/cache/")
	if !found {
		return ""
	}
	id, _, _ := strings.Cut(after, "/")
	return id
}

// firstString returns the first non-empty trimmed value among keys.
func firstString(row map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(stringOf(row[k])); s != "" {
			return s
		}
	}
	return ""
}

func stringOf(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}
