package services

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/mealgrid/apiserver/types"
)

// categoryRules are tested in order against the lower-cased concatenation of
// name, description and ingredient names. The first match wins; the priority
// order is load-bearing (a "Chicken Soup" is Chicken, not Liquid) and must
// not be reordered.
var categoryRules = []struct {
	pattern  *regexp.Regexp
	category types.Category
}{
	{regexp.MustCompile(`chicken`), types.CategoryChicken},
	{regexp.MustCompile(`egg|fish|meat|mutton|beef|prawn|shrimp`), types.CategoryNonVeg},
	{regexp.MustCompile(`paneer|tofu|dal|chickpea|lentil|beans|vegetable|veggie|broccoli|spinach|cauliflower|peas|cabbage`), types.CategoryVeggie},
	{regexp.MustCompile(`shake|smoothie|juice|soup|broth|liquid|drink`), types.CategoryLiquid},
	{regexp.MustCompile(`protein|whey|high protein|muscle|bodybuilding`), types.CategoryHighProtein},
}

// Categorize derives the taxonomy tag for a recipe from its text content.
// It is a pure function: identical inputs always yield the same category.
func Categorize(name, description string, ingredients []types.Ingredient) types.Category {
	parts := []string{name, description}
	for _, ingredient := range ingredients {
		parts = append(parts, ingredient.Name)
	}
	text := strings.ToLower(strings.Join(parts, " "))

	for _, rule := range categoryRules {
		if rule.pattern.MatchString(text) {
			return rule.category
		}
	}
	return types.CategoryOther
}

const imageSearchBase = "https://source.unsplash.com/featured/300x200?"

// SuggestImage builds a deterministic stock-photo search URL for a recipe
// with no image of its own. It performs no network call; the URL is resolved
// client-side.
func SuggestImage(name string, category types.Category) string {
	if category != "" && category != types.CategoryOther {
		return imageSearchBase + url.QueryEscape(string(category)+" food")
	}
	if name != "" {
		return imageSearchBase + url.QueryEscape(name)
	}
	return imageSearchBase + "food"
}
