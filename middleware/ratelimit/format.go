package ratelimit

import (
	"math"
	"strconv"
	"time"
)

func formatInt(v int) string { return strconv.Itoa(v) }

// formatFloat evita notação científica em valores comuns (ex.: 0.02).
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatSeconds arredonda para cima: Retry-After só aceita segundos inteiros
// e 0 faria o cliente voltar na hora.
func formatSeconds(d time.Duration) string {
	return formatInt(max(1, int(math.Ceil(d.Seconds()))))
}
