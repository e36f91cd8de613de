// Package glob implements the shell-style wildcard matcher SeedLink uses
// to match stream table entries against incoming network/station codes:
// '*' (any run of characters), '?' (exactly one character), character
// classes '[abc]' / '[a-z]' / negated '[!abc]', and a backslash escape for
// the next literal character. This is a direct reimplementation, not a
// regex-engine substitution.
package glob

// Match reports whether s matches the shell-style pattern.
func Match(pattern, s string) bool {
	return match([]rune(pattern), []rune(s))
}

func match(pattern, s []rune) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			// Collapse consecutive '*' and try every split point.
			for len(pattern) > 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if match(pattern, s[i:]) {
					return true
				}
			}
			return false

		case '?':
			if len(s) == 0 {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]

		case '[':
			if len(s) == 0 {
				return false
			}
			end := classEnd(pattern)
			if end < 0 {
				// Malformed class: treat '[' as a literal.
				if s[0] != '[' {
					return false
				}
				pattern = pattern[1:]
				s = s[1:]
				continue
			}
			if !classMatches(pattern[1:end], s[0]) {
				return false
			}
			pattern = pattern[end+1:]
			s = s[1:]

		case '\\':
			if len(pattern) < 2 {
				// Trailing backslash: match it literally.
				if len(s) == 0 || s[0] != '\\' {
					return false
				}
				pattern = pattern[1:]
				s = s[1:]
				continue
			}
			if len(s) == 0 || s[0] != pattern[1] {
				return false
			}
			pattern = pattern[2:]
			s = s[1:]

		default:
			if len(s) == 0 || s[0] != pattern[0] {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]
		}
	}
	return len(s) == 0
}

// classEnd returns the index of the closing ']' of the class starting at
// pattern[0] == '[', or -1 if there is none.
func classEnd(pattern []rune) int {
	for i := 1; i < len(pattern); i++ {
		if pattern[i] != ']' {
			continue
		}
		// A ']' immediately after '[' or "[!" is a literal member, per the
		// conventional shell-glob rule; keep scanning.
		if i == 1 || (i == 2 && pattern[1] == '!') {
			continue
		}
		return i
	}
	return -1
}

func classMatches(class []rune, c rune) bool {
	negate := false
	if len(class) > 0 && class[0] == '!' {
		negate = true
		class = class[1:]
	}

	matched := false
	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			lo, hi := class[i], class[i+2]
			if lo <= c && c <= hi {
				matched = true
			}
			i += 2
			continue
		}
		if class[i] == c {
			matched = true
		}
	}

	if negate {
		return !matched
	}
	return matched
}
