package utils

import (
    "strings"
    "unicode/utf8"
)

// Truncate shortens s to at most max bytes without splitting a UTF-8
// sequence.  Invalid bytes are dropped first so the result is always valid
// for VARCHAR columns in utf8mb4.
func Truncate(s string, max int) string {
    if max <= 0 {
        return ""
    }
    s = strings.ToValidUTF8(s, "")
    if len(s) <= max {
        return s
    }
    cut := max
    for cut > 0 && !utf8.RuneStart(s[cut]) {
        cut--
    }
    return s[:cut]
}
