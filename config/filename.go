package config

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const badFileName = "_bad_file_name_"

// Generated names are cut to leave room for an extension under the usual
// 255 byte limit.
const maxFileNameBytes = 240

// CleanFileName turns arbitrary text into a single file name. Separators,
// control characters and characters the platform rejects are dropped,
// surrounding spaces and leading dots trimmed, overly long names cut on a
// rune boundary.
func CleanFileName(in string) string {
	out := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(forbiddenRunes, r) {
			return -1
		}
		return r
	}, in)
	out = strings.TrimLeft(strings.TrimSpace(out), ".")
	if len(out) > maxFileNameBytes {
		cut := maxFileNameBytes
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = strings.TrimSpace(out[:cut])
	}
	if out == "" {
		return badFileName
	}
	if reservedFileName(out) {
		out = "_" + out
	}
	return out
}
