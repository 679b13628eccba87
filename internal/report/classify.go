package report

import "strings"

// Category is an error classification bucket.
type Category string

const (
	CategoryTrust     Category = "trust"
	CategorySignature Category = "signature"
	CategoryDownload  Category = "download"
	CategoryNetwork   Category = "network"
	CategoryAuth      Category = "auth"
	CategoryJamf      Category = "jamf"
	CategoryOther     Category = "other"
)

// Categories lists every category in rendering order.
var Categories = []Category{
	CategoryTrust,
	CategorySignature,
	CategoryDownload,
	CategoryNetwork,
	CategoryAuth,
	CategoryJamf,
	CategoryOther,
}

// classifier rules, evaluated in order; the first rule with a matching
// keyword wins.
var classifierRules = []struct {
	category Category
	keywords []string
}{
	{CategoryTrust, []string{"trust"}},
	{CategorySignature, []string{"signature", "codesign"}},
	{CategoryAuth, []string{"401", "403", "auth", "token", "permission"}},
	{CategoryDownload, []string{"download", "fetch", "curl"}},
	{CategoryNetwork, []string{"proxy", "timeout", "network", "url", "dns"}},
	{CategoryJamf, []string{"jamf", "policy"}},
}

// Classify maps an error message to a category by case-insensitive keyword
// search. It is total: anything unrecognised is CategoryOther.
func Classify(msg string) Category {
	lm := strings.ToLower(msg)
	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lm, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}
