package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTime converts a zero padded HH:MM:SS string into seconds since
// midnight. Hours may exceed 24 to represent times past midnight on the
// following day. An empty string parses to zero seconds.
func ParseTime(value string) int {
	if value == "" {
		return 0
	}

	parts := strings.Split(value, ":")
	seconds := 0
	for i, part := range parts {
		if i > 2 {
			break
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0
		}
		switch i {
		case 0:
			seconds += n * 3600
		case 1:
			seconds += n * 60
		case 2:
			seconds += n
		}
	}
	return seconds
}

// FormatTime renders seconds since midnight as HH:MM:SS. Times past
// midnight keep accumulating hours, e.g. 25:04:00.
func FormatTime(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
