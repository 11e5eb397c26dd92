package registry

import "strings"

// NormalizeCNPJ keeps only the digits of value.
func NormalizeCNPJ(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CheckCNPJ returns a user-facing message when digits is not an acceptable
// CNPJ, or "" when it is.
func CheckCNPJ(digits string) string {
	if len(digits) != 14 {
		return "CNPJ deve conter 14 dígitos."
	}
	if strings.Count(digits, digits[:1]) == len(digits) {
		return "CNPJ inválido."
	}
	return ""
}
