// formatação rápida e consistente de números em headers.
// strconv direto, sem notação científica para valores comuns.

package quota

import (
	"strconv"

	"pdfcraft-gateway/middleware/quota/domain"
)

func formatInt(v int) string { return strconv.Itoa(v) }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatRemaining escreve "unlimited" no lugar do sentinel.
func formatRemaining(v int) string {
	if v == domain.Unlimited {
		return "unlimited"
	}
	return formatInt(v)
}
