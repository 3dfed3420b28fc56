package domain

import "strings"

// MatchRule identifies which rule resolved a request identifier to a feed.
type MatchRule string

const (
	MatchRuleExactType   MatchRule = "exact_type"
	MatchRulePartialType MatchRule = "partial_type"
	MatchRulePartialName MatchRule = "partial_name"
	MatchRuleNone        MatchRule = "none"
)

// MatchFeed resolves a request's feed identifiers against the inventory.
// Rules apply in order of strength: an exact type match beats a partial
// type match beats a partial name match. Within a rule the first feed in
// iteration order wins. Matching is case-insensitive.
func MatchFeed(feeds []*Feed, typeName, feedType string) (*Feed, MatchRule) {
	typeName = strings.ToLower(strings.TrimSpace(typeName))
	feedType = strings.ToLower(strings.TrimSpace(feedType))

	if typeName != "" {
		for _, feed := range feeds {
			if strings.ToLower(feed.Type) == typeName {
				return feed, MatchRuleExactType
			}
		}
	}
	if feedType != "" {
		for _, feed := range feeds {
			if strings.Contains(strings.ToLower(feed.Type), feedType) {
				return feed, MatchRulePartialType
			}
		}
	}
	if typeName != "" {
		for _, feed := range feeds {
			if strings.Contains(strings.ToLower(feed.Name), typeName) {
				return feed, MatchRulePartialName
			}
		}
	}
	return nil, MatchRuleNone
}
