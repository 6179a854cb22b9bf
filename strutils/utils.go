package strutils

import (
	"strings"
	"unicode"
)

//SingleJoiningSlash joins two strings with slashes resulting a single string with one slash
func SingleJoiningSlash(a, b string) string {
	aslash := strings.HasSuffix(a, "/")
	bslash := strings.HasPrefix(b, "/")
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash && b != "":
		return a + "/" + b
	}
	return a + b
}

//Intersection intersects two string arrays
func Intersection(s1, s2 []string) (inter []string) {
	hash := make(map[string]bool)
	for _, e := range s1 {
		hash[e] = true
	}
	for _, e := range s2 {
		if hash[e] {
			inter = append(inter, e)
		}
	}
	return
}

//LowerCamelCase converts a setting name to its lowerCamelCase form.
//Underscore separated segments are joined ("USER_POOL_ID" -> "userPoolId"),
//names already in camel case only get the first rune lowered.
func LowerCamelCase(s string) string {
	if s == "" {
		return s
	}

	if !strings.Contains(s, "_") {
		r := []rune(s)
		r[0] = unicode.ToLower(r[0])
		return string(r)
	}

	var sb strings.Builder
	first := true
	for _, seg := range strings.Split(s, "_") {
		if seg == "" {
			continue
		}
		seg = strings.ToLower(seg)
		if first {
			sb.WriteString(seg)
			first = false
			continue
		}
		r := []rune(seg)
		r[0] = unicode.ToUpper(r[0])
		sb.WriteString(string(r))
	}
	return sb.String()
}
