package symbols

import (
	"sort"
)

// Distance computes the signed distance of a local-label usage: the number of
// leading prefix characters, negated when the usage follows a unary minus.
func Distance(name string, prefix byte, negative bool) int {
	n := countPrefix(name, prefix, len(name))
	if negative {
		return -n
	}

	return n
}

// IsLocalLabel reports whether name is spelled as a local label.
func IsLocalLabel(name string, prefix byte) bool {
	return prefix != 0 && len(name) > 0 && name[0] == prefix
}

func countPrefix(name string, prefix byte, limit int) int {
	if prefix == 0 {
		return 0
	}

	n := 0
	for n < len(name) && n < limit && name[n] == prefix {
		n++
	}

	return n
}

// stripPrefix removes up to limit leading prefix characters.
func stripPrefix(name string, prefix byte, limit int) string {
	return name[countPrefix(name, prefix, limit):]
}

// ResolveLocalLabel finds the local label a usage refers to: the Nth
// definition with the same spelling, counted from the usage's line in the
// direction of the distance. The result holds at most one definition.
func (ix *Index) ResolveLocalLabel(u Usage) []Definition {
	if u.File == nil || u.File.Language == nil || u.Distance == 0 {
		return nil
	}

	n := u.Distance
	forward := n > 0
	if !forward {
		n = -n
	}

	prefix := u.File.Language.LocalPrefix()
	suffix := Normalize(stripPrefix(u.Name, prefix, n))

	var candidates []Definition

	for _, d := range ix.FindAllDefinitions(FileScope(u.File), KindLocalLabel) {
		if Normalize(stripPrefix(d.Name, prefix, n)) != suffix {
			continue
		}

		if forward && d.Offset > u.LineStart || !forward && d.Offset < u.LineStart {
			candidates = append(candidates, d)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if forward {
			return candidates[i].Offset < candidates[j].Offset
		}

		return candidates[i].Offset > candidates[j].Offset
	})

	if len(candidates) < n {
		return nil
	}

	return []Definition{candidates[n-1]}
}
