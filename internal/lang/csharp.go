package lang

import (
	"github.com/smacker/go-tree-sitter/csharp"

	"github.com/phobologic/routeaudit/internal/model"
	"github.com/phobologic/routeaudit/internal/parse"
)

// Only code-behind partial classes are route-bearing; plain .cs files are
// scanned for links but never for routes.
func init() {
	Languages["csharp"] = &Language{
		Name:     "csharp",
		Suffixes: []string{".razor.cs"},
		lang:     csharp.GetLanguage(),
		Extract: func(l *Language, source []byte) model.Page {
			return parse.CodeBehind(l.NewParser(), source)
		},
	}
}
