package stock

// OptionList is an ordered set of strings that only grows. Membership is
// case-sensitive; With never mutates the receiver.
type OptionList []string

func (l OptionList) Contains(v string) bool {
	for _, s := range l {
		if s == v {
			return true
		}
	}
	return false
}

// With returns l plus v and whether v was added.
func (l OptionList) With(v string) (OptionList, bool) {
	if v == "" || l.Contains(v) {
		return l, false
	}
	out := make(OptionList, len(l), len(l)+1)
	copy(out, l)
	return append(out, v), true
}
