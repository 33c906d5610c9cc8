// Package handler provides Telegram bot command handlers.
package handler

import (
	"fmt"
	"strings"

	"minecraft-rewind/internal/model"
)

// statLabels maps statistic keys to their display label.
var statLabels = map[string]string{
	model.StatPlaytimeHours: "⏱ Playtime (hours)",
	model.StatDistanceKM:    "🏃 Distance traveled (km)",
	model.StatMobKills:      "⚔️ Mobs killed",
	model.StatBlocksMined:   "⛏ Blocks mined",
	model.StatBlocksCrafted: "🔨 Blocks crafted",
	model.StatDeaths:        "💀 Deaths",
	model.StatToolsBroken:   "🔧 Tools broken",
}

// StatLabel returns the display label of a statistic key.
func StatLabel(key string) string {
	if label, ok := statLabels[key]; ok {
		return label
	}
	return key
}

// FormatNumber formats a stat value, dropping the decimals of whole
// numbers and separating thousands with spaces.
func FormatNumber(v float64) string {
	var s string
	if v == float64(int64(v)) {
		s = fmt.Sprintf("%d", int64(v))
	} else {
		s = fmt.Sprintf("%.2f", v)
	}

	intPart := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(digit)
	}

	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

// FormatItemName formats a stored item identifier for display.
func FormatItemName(name *string) string {
	if name == nil || *name == "" {
		return "None"
	}
	words := strings.Split(strings.ReplaceAll(*name, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
