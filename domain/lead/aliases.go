package lead

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field names a canonical lead attribute that raw columns map onto.
type Field string

// Canonical fields.
const (
	FieldUsername       Field = "username"
	FieldName           Field = "name"
	FieldBio            Field = "bio"
	FieldCategory       Field = "category"
	FieldTitle          Field = "title"
	FieldCompany        Field = "company"
	FieldCity           Field = "city"
	FieldDomain         Field = "domain"
	FieldWebsite        Field = "website"
	FieldEmail          Field = "email"
	FieldPhone          Field = "phone"
	FieldFollowerCount  Field = "follower_count"
	FieldFollowingCount Field = "following_count"
)

// AliasTable maps each canonical field to the column-name synonyms that are
// accepted for it. Matching is case- and punctuation-insensitive: synonyms
// and incoming column names are both reduced to lowercase alphanumerics
// before comparison, so "E-mail", "e_mail" and "EMail" are one synonym.
type AliasTable map[Field][]string

// DefaultAliases returns the built-in alias table covering the column
// variants observed across source datasets.
func DefaultAliases() AliasTable {
	return AliasTable{
		FieldUsername:       {"username", "user name", "handle", "account"},
		FieldName:           {"name", "full name", "fullname", "contact name"},
		FieldBio:            {"bio", "description", "about", "summary"},
		FieldCategory:       {"category", "industry", "sector"},
		FieldTitle:          {"title", "job title", "position", "role"},
		FieldCompany:        {"company", "company name", "employer", "organization", "organisation"},
		FieldCity:           {"city", "town", "location"},
		FieldDomain:         {"domain", "company domain"},
		FieldWebsite:        {"website", "url", "web site", "homepage"},
		FieldEmail:          {"email", "e-mail", "email address"},
		FieldPhone:          {"phone", "phone number", "phonenumber", "telephone", "mobile"},
		FieldFollowerCount:  {"follower count", "followercount", "followers"},
		FieldFollowingCount: {"following count", "followingcount", "following"},
	}
}

// Merge returns a table where entries from other extend this table.
// Synonyms are appended; existing synonyms for a field are kept, so
// dataset-specific tables only add to the defaults.
func (t AliasTable) Merge(other AliasTable) AliasTable {
	merged := make(AliasTable, len(t))
	for field, synonyms := range t {
		merged[field] = append([]string(nil), synonyms...)
	}
	for field, synonyms := range other {
		merged[field] = append(merged[field], synonyms...)
	}
	return merged
}

// LoadAliases reads a per-dataset alias table from a YAML file and merges
// it over the defaults. The file maps canonical field names to synonym
// lists:
//
//	company:
//	  - employer
//	  - firma
func LoadAliases(path string) (AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias table: %w", err)
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse alias table: %w", err)
	}

	known := DefaultAliases()
	extra := make(AliasTable, len(raw))
	for name, synonyms := range raw {
		field := Field(strings.ToLower(strings.TrimSpace(name)))
		if _, ok := known[field]; !ok {
			return nil, fmt.Errorf("alias table: unknown canonical field %q", name)
		}
		extra[field] = synonyms
	}

	return known.Merge(extra), nil
}

// canonicalKey reduces a column name to lowercase alphanumerics so that
// case, punctuation, and spacing differences do not affect matching.
func canonicalKey(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
