// Package normalize assigns merge identity to ingredients and shopping
// items: lowercased, trimmed names are the sole equality key, and a
// keyword fallback classifies seasonings for records that predate the
// explicit flag.
package normalize

import "strings"

// Name returns the normalized form of an item name used for matching.
func Name(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// seasoningKeywords covers the pantry staples the original app shipped
// with, both English and Japanese. Matching is substring-based on the
// normalized name.
var seasoningKeywords = []string{
	// English
	"salt", "pepper", "soy sauce", "sugar", "vinegar", "miso", "mirin",
	"sake", "dashi", "stock", "bouillon", "broth", "consomme",
	"ketchup", "mayonnaise", "mustard", "wasabi", "olive oil",
	"sesame oil", "vegetable oil", "butter", "margarine", "spice",
	"curry powder", "chili", "paprika", "cumin", "oregano", "basil",
	"thyme", "cinnamon", "nutmeg", "garlic powder", "ginger powder",
	"oyster sauce", "worcestershire", "honey", "syrup",
	// Japanese
	"塩", "こしょう", "胡椒", "醤油", "しょうゆ", "砂糖", "酢",
	"味噌", "みそ", "みりん", "料理酒", "だし", "出汁", "コンソメ",
	"ブイヨン", "鶏ガラ", "ウスターソース", "オイスターソース",
	"ケチャップ", "マヨネーズ", "からし", "わさび", "ごま油",
	"サラダ油", "オリーブオイル", "バター", "豆板醤", "甜麺醤",
	"コチュジャン", "カレー粉", "七味", "一味", "はちみつ",
	"ぽん酢", "ポン酢", "めんつゆ", "白だし",
}

// IsSeasoningItem reports whether a name looks like a seasoning. This is
// the fallback for legacy and history records that carry no explicit
// flag; an explicit flag always wins (see Classify).
func IsSeasoningItem(name string) bool {
	n := Name(name)
	if n == "" {
		return false
	}
	for _, kw := range seasoningKeywords {
		if strings.Contains(n, kw) {
			return true
		}
	}
	return false
}

// Classify resolves the seasoning status of a record: the explicit flag
// takes precedence when present (including explicit false), otherwise the
// keyword fallback decides.
func Classify(name string, explicit *bool) bool {
	if explicit != nil {
		return *explicit
	}
	return IsSeasoningItem(name)
}
