package safeid

// reserved lists words that can not be used as binding identifiers in
// strict-mode module code, plus names with special meaning in function scope.
var reserved = map[string]struct{}{
	"arguments":  {},
	"await":      {},
	"break":      {},
	"case":       {},
	"catch":      {},
	"class":      {},
	"const":      {},
	"continue":   {},
	"debugger":   {},
	"default":    {},
	"delete":     {},
	"do":         {},
	"else":       {},
	"enum":       {},
	"eval":       {},
	"export":     {},
	"extends":    {},
	"false":      {},
	"finally":    {},
	"for":        {},
	"function":   {},
	"if":         {},
	"implements": {},
	"import":     {},
	"in":         {},
	"instanceof": {},
	"interface":  {},
	"let":        {},
	"new":        {},
	"null":       {},
	"package":    {},
	"private":    {},
	"protected":  {},
	"public":     {},
	"return":     {},
	"static":     {},
	"super":      {},
	"switch":     {},
	"this":       {},
	"throw":      {},
	"true":       {},
	"try":        {},
	"typeof":     {},
	"undefined":  {},
	"var":        {},
	"void":       {},
	"while":      {},
	"with":       {},
	"yield":      {},
}

// IsReserved reports whether id is a reserved word.
func IsReserved(id string) bool {
	_, ok := reserved[id]
	return ok
}
