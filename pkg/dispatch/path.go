package dispatch

import "strings"

// Path is a parsed page path: the first segment names the module, the rest
// are module arguments.
type Path struct {
	Raw    string
	Module string
	Args   []string
}

// ParsePath splits raw on "/" ignoring empty segments. An empty path
// resolves to defaultModule.
func ParsePath(raw, defaultModule string) Path {
	var segments []string
	for _, s := range strings.Split(strings.ReplaceAll(raw, "\\", "/"), "/") {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}

	p := Path{Raw: strings.Join(segments, "/")}
	if len(segments) == 0 {
		p.Module = defaultModule
		return p
	}
	p.Module = segments[0]
	p.Args = segments[1:]
	return p
}

// Arg returns the i-th argument or "".
func (p Path) Arg(i int) string {
	if i < 0 || i >= len(p.Args) {
		return ""
	}
	return p.Args[i]
}
