package sheets

// ColumnName converts a 1-based column count to its A1 letter(s).
func ColumnName(n int) string {
	if n <= 0 {
		return "A"
	}
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}
