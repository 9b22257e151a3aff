package size

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatBytes renders a byte count in binary units (KiB, MiB, ...).
func FormatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%dB", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

// MustParse is Parse that panics on invalid input. Intended for flag
// defaults that are known to be well-formed.
func MustParse(size string) int64 {
	parsedSize, err := Parse(size)
	if err != nil {
		panic(err)
	}
	return parsedSize
}

// Parse converts a human-readable size string ("256k", "4m", "1gb") into a
// byte count. Suffixes are case-insensitive and binary (k = 1024). An empty
// string parses to 0.
func Parse(size string) (int64, error) {
	size = strings.TrimSpace(size)
	if size == "" {
		return 0, nil
	}

	lower := strings.ToLower(size)

	num := lower
	multiplier := int64(1)

	// Longest suffixes first, so "kib" is not matched by "b".
	for _, s := range []string{"tib", "gib", "mib", "kib", "tb", "gb", "mb", "kb", "t", "g", "m", "k", "b"} {
		if strings.HasSuffix(lower, s) {
			num = strings.TrimSpace(lower[:len(lower)-len(s)])
			switch s[0] {
			case 'k':
				multiplier = 1 << 10
			case 'm':
				multiplier = 1 << 20
			case 'g':
				multiplier = 1 << 30
			case 't':
				multiplier = 1 << 40
			}
			break
		}
	}

	if multiplier == 1 {
		n, err := strconv.ParseInt(num, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size: %s", size)
		}
		return n, nil
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", num)
	}

	return int64(n * float64(multiplier)), nil
}
