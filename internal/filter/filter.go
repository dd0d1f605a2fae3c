package filter

import (
	"fmt"
	"regexp"
	"strings"

	"FlashMonitor/internal/domain"
)

// Classifier applies the advertisement and placeholder pattern sets to an
// item. Classification is pure: the same text always yields the same result.
type Classifier struct {
	ads          []*regexp.Regexp
	placeholders []*regexp.Regexp
}

// New compiles the pattern lists. Patterns are data, not code; a broken
// pattern is a configuration error and fails construction.
func New(adPatterns, placeholderPatterns []string) (*Classifier, error) {
	ads, err := compileAll("ad", adPatterns)
	if err != nil {
		return nil, err
	}
	placeholders, err := compileAll("placeholder", placeholderPatterns)
	if err != nil {
		return nil, err
	}
	return &Classifier{ads: ads, placeholders: placeholders}, nil
}

func compileAll(kind string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile %s pattern %q: %w", kind, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Classify runs the filters in fixed order, ad before placeholder, and
// returns the tag to record. TagNotified means the item is substantive.
func (c *Classifier) Classify(item domain.FeedItem) domain.DedupTag {
	text := item.Title + " " + item.Content
	if matchAny(c.ads, text) {
		return domain.TagAd
	}
	if matchAny(c.placeholders, text) {
		return domain.TagPlaceholder
	}
	return domain.TagNotified
}

func matchAny(res []*regexp.Regexp, text string) bool {
	text = strings.TrimSpace(text)
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
