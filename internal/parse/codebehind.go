package parse

import (
	"context"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/routeaudit/internal/model"
)

var (
	// Matches the text of a single C# attribute node, e.g. Route("/x") or
	// Microsoft.AspNetCore.Authorization.AuthorizeAttribute(Roles = "a").
	attributeRe = regexp.MustCompile(`(?is)^(?:[\w.]+\.)?(Route|Authorize|AllowAnonymous)(?:Attribute)?\s*(?:\((.*)\))?$`)

	stringLiteralRe = regexp.MustCompile(`@?"((?:[^"\\]|\\.)*)"`)
)

// CodeBehind extracts routes and authorization from a component's C#
// code-behind file. Only attribute nodes of the syntax tree are inspected,
// so commented-out attributes are never seen and every route is active.
func CodeBehind(parser *sitter.Parser, source []byte) model.Page {
	var page model.Page
	if len(source) == 0 {
		return page
	}

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return page
	}
	defer tree.Close()

	var authorized, public bool
	roles := newRoleSet()

	walkNamed(tree.RootNode(), func(n *sitter.Node) {
		if n.Type() != "attribute" {
			return
		}
		m := attributeRe.FindStringSubmatch(strings.TrimSpace(n.Content(source)))
		if m == nil {
			return
		}
		switch strings.ToLower(m[1]) {
		case "route":
			lit := stringLiteralRe.FindStringSubmatch(m[2])
			if lit == nil {
				return
			}
			page.Routes = append(page.Routes, model.RouteDecl{
				Template: lit[1],
				Offset:   int(n.StartByte()),
				Active:   true,
			})
		case "authorize":
			authorized = true
			roles.addArgs(m[2])
		case "allowanonymous":
			public = true
		}
	})

	if authorized && !public {
		page.Auth = model.AuthInfo{Authorized: true, Roles: roles.sorted()}
	}
	return page
}

// walkNamed visits n and all of its named descendants in document order.
func walkNamed(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walkNamed(n.NamedChild(i), visit)
	}
}
