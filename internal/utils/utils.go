// Package utils содержит утилитарные функции, используемые в разных частях приложения
package utils

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// FormatDuration форматирует time.Duration в формат M:SS, а для длинных записей в H:MM:SS
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatSeconds форматирует продолжительность в секундах. Неизвестная длительность выводится как --:--
func FormatSeconds(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "--:--"
	}
	return FormatDuration(SecondsToDuration(seconds))
}

// SecondsToDuration переводит секунды в time.Duration
func SecondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// TruncateString обрезает строку до указанной длины в символах, добавляя "..." если строка длиннее
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// FormatFileSize форматирует размер в байтах в человекочитаемый вид
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

// ShortID возвращает первые 8 символов идентификатора для вывода в списках
func ShortID(id uuid.UUID) string {
	return id.String()[:8]
}
