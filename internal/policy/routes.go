package policy

import (
	"net/url"
	"path"
	"strings"
)

// RouteClass groups paths by who may reach them.
type RouteClass int

const (
	RoutePublic RouteClass = iota
	RouteAuth
	RouteMembers
	RouteAdmin
)

func (c RouteClass) String() string {
	switch c {
	case RouteAuth:
		return "auth"
	case RouteMembers:
		return "members"
	case RouteAdmin:
		return "admin"
	default:
		return "public"
	}
}

// Well-known navigation targets.
const (
	PathLogin           = "/login"
	PathRegister        = "/register"
	PathForgotPassword  = "/forgot-password"
	PathMembers         = "/members"
	PathAdmin           = "/admin"
	PathPendingApproval = "/pending-approval"
)

var authPaths = []string{PathLogin, PathRegister, PathForgotPassword}

// Classify maps a navigation target to its route class. The query string
// and dot segments are dropped first, and matching is by whole path
// segment, so "/administrator" is public.
func Classify(target string) RouteClass {
	p := routePath(target)
	switch {
	case underPrefix(p, PathAdmin):
		return RouteAdmin
	case underPrefix(p, PathMembers):
		return RouteMembers
	}
	for _, prefix := range authPaths {
		if underPrefix(p, prefix) {
			return RouteAuth
		}
	}
	return RoutePublic
}

func routePath(target string) string {
	if u, err := url.Parse(target); err == nil {
		target = u.Path
	} else if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	if target == "" {
		return "/"
	}
	return path.Clean(target)
}

func underPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// LocalPath returns target as a cleaned same-site path plus its query, or ""
// when target could leave the site.
func LocalPath(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return ""
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" || u.Opaque != "" {
		return ""
	}
	local := url.URL{Path: path.Clean(u.Path), RawQuery: u.RawQuery}
	return local.String()
}

// LoginURL returns the login path carrying the originally requested path.
func LoginURL(requested string) string {
	return PathLogin + "?" + url.Values{"redirect": {requested}}.Encode()
}
