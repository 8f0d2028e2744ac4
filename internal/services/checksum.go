package services

// ValidateThaiID validates a 13-digit Thai national ID number against its
// check digit: weights 13..2 over the first twelve digits, then
// (11 - sum%11) % 10 must equal the last digit.
func ValidateThaiID(id string) bool {
	if len(id) != 13 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}

	sum := 0
	for i := 0; i < 12; i++ {
		sum += int(id[i]-'0') * (13 - i)
	}

	checksum := (11 - (sum % 11)) % 10
	return checksum == int(id[12]-'0')
}
