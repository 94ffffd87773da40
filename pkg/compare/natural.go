package compare

import (
	"cmp"
	"strings"
)

// Natural compares two strings case-insensitively with digit runs compared
// by numeric value, so "item2" sorts before "item10". Runs equal in value
// order by leading zeros, "7" before "007", and the walk continues past
// them. Outside digit runs the comparison is plain byte order over the
// lower-cased strings.
func Natural(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			aEnd, aZeros := digitRun(a, i)
			bEnd, bZeros := digitRun(b, j)
			aDigits := a[i+aZeros : aEnd]
			bDigits := b[j+bZeros : bEnd]
			if len(aDigits) != len(bDigits) {
				return cmp.Compare(len(aDigits), len(bDigits))
			}
			if c := strings.Compare(aDigits, bDigits); c != 0 {
				return c
			}
			if aZeros != bZeros {
				return cmp.Compare(aZeros, bZeros)
			}
			i, j = aEnd, bEnd
			continue
		}
		if ca != cb {
			return cmp.Compare(ca, cb)
		}
		i++
		j++
	}
	return cmp.Compare(len(a)-i, len(b)-j)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// digitRun returns the end of the digit run starting at i and the count of
// leading zeros, keeping at least one digit when the run is all zeros.
func digitRun(s string, i int) (end, zeros int) {
	end = i
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	zeros = 0
	for i+zeros < end-1 && s[i+zeros] == '0' {
		zeros++
	}
	return end, zeros
}
