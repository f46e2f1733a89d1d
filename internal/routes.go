package internal

import (
	"fmt"
	"strings"
)

// Route names used by handlers and templates to build URLs.
const (
	RouteItemList   = "item_list"
	RouteItemCreate = "item_create"
	RouteItemUpdate = "item_update"
	RouteItemDelete = "item_delete"
)

var routePatterns = map[string]string{
	RouteItemList:   "/items/",
	RouteItemCreate: "/items/new",
	RouteItemUpdate: "/items/{id}/edit",
	RouteItemDelete: "/items/{id}/delete",
}

// URLFor resolves a route name to a path, filling {placeholders} from args
// in order.
func URLFor(name string, args ...any) (string, error) {
	pattern, ok := routePatterns[name]
	if !ok {
		return "", fmt.Errorf("unknown route %q", name)
	}

	var b strings.Builder
	rest := pattern
	used := 0
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			return "", fmt.Errorf("route %q has an unterminated placeholder", name)
		}
		if used >= len(args) {
			return "", fmt.Errorf("route %q needs more than %d argument(s)", name, len(args))
		}
		b.WriteString(rest[:start])
		b.WriteString(fmt.Sprint(args[used]))
		used++
		rest = rest[start+end+1:]
	}
	if used != len(args) {
		return "", fmt.Errorf("route %q takes %d argument(s), got %d", name, used, len(args))
	}
	return b.String(), nil
}

// mustURLFor is for route names fixed at compile time.
func mustURLFor(name string, args ...any) string {
	u, err := URLFor(name, args...)
	if err != nil {
		panic(err)
	}
	return u
}
