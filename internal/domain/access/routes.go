package access

import (
	"path"
	"strings"
)

const (
	PathLogin        = "/login"
	PathRegister     = "/register"
	PathAdminHome    = "/admin"
	PathEmployeeHome = "/"
)

type Tree int

const (
	TreeNone Tree = iota
	TreePublic
	TreeAdmin
	TreeEmployee
)

func (t Tree) String() string {
	switch t {
	case TreePublic:
		return "public"
	case TreeAdmin:
		return "admin"
	case TreeEmployee:
		return "employee"
	default:
		return "none"
	}
}

var (
	PublicPaths = []string{PathLogin, PathRegister}

	AdminSections = []string{
		"users",
		"departments",
		"positions",
		"salary-payment",
		"location",
		"bank",
		"attendance",
	}

	EmployeeSections = []string{
		"attendance",
		"profile",
		"history",
		"activity",
	}
)

// Classify maps a request path to the view tree that owns it. Sections match
// themselves and anything nested below them.
func Classify(requestPath string) Tree {
	p := normalizePath(requestPath)
	for _, public := range PublicPaths {
		if p == public {
			return TreePublic
		}
	}
	if p == PathAdminHome {
		return TreeAdmin
	}
	if rest, ok := strings.CutPrefix(p, PathAdminHome+"/"); ok {
		if inSections(rest, AdminSections) {
			return TreeAdmin
		}
		return TreeNone
	}
	if p == PathEmployeeHome {
		return TreeEmployee
	}
	if inSections(strings.TrimPrefix(p, "/"), EmployeeSections) {
		return TreeEmployee
	}
	return TreeNone
}

func inSections(rest string, sections []string) bool {
	head, _, _ := strings.Cut(rest, "/")
	for _, section := range sections {
		if head == section {
			return true
		}
	}
	return false
}

func normalizePath(requestPath string) string {
	if requestPath == "" {
		return "/"
	}
	if !strings.HasPrefix(requestPath, "/") {
		requestPath = "/" + requestPath
	}
	cleaned := path.Clean(requestPath)
	return cleaned
}
