package domain

import "strings"

// ValidCPF reports whether the given Brazilian CPF is valid: 11 digits
// after stripping formatting, not a repeated-digit sequence, and both
// check digits correct.
func ValidCPF(cpf string) bool {
	digits := onlyDigits(cpf)
	if len(digits) != 11 {
		return false
	}
	repeated := true
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			repeated = false
			break
		}
	}
	if repeated {
		return false
	}
	if cpfCheckDigit(digits[:9], 10) != int(digits[9]-'0') {
		return false
	}
	return cpfCheckDigit(digits[:10], 11) == int(digits[10]-'0')
}

func cpfCheckDigit(base string, factor int) int {
	total := 0
	for i := 0; i < len(base); i++ {
		total += int(base[i]-'0') * factor
		factor--
	}
	rest := total % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

// FormatCPF renders the digits of cpf as ###.###.###-##, formatting as far
// as the available digits allow. Extra digits beyond 11 are discarded.
func FormatCPF(cpf string) string {
	digits := onlyDigits(cpf)
	if len(digits) > 11 {
		digits = digits[:11]
	}
	switch {
	case digits == "":
		return ""
	case len(digits) <= 3:
		return digits
	case len(digits) <= 6:
		return digits[:3] + "." + digits[3:]
	case len(digits) <= 9:
		return digits[:3] + "." + digits[3:6] + "." + digits[6:]
	default:
		return digits[:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:]
	}
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
