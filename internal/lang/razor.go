package lang

import (
	"github.com/phobologic/routeaudit/internal/model"
	"github.com/phobologic/routeaudit/internal/parse"
)

func init() {
	Languages["razor"] = &Language{
		Name:     "razor",
		Suffixes: []string{".razor"},
		Extract: func(_ *Language, source []byte) model.Page {
			return parse.Razor(source)
		},
	}
}
