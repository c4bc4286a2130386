package notification

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/ticsbot/pkg/core"
)

// formatQuoteMessage renders the composite quote for the /price command.
func formatQuoteMessage(quote core.CompositeQuote) string {
	var sb strings.Builder

	sb.WriteString("*TICS/USDT*\n")
	fmt.Fprintf(&sb, "Price: `$%.4f`\n", quote.Price)
	fmt.Fprintf(&sb, "24h High: `$%.4f`\n", quote.High)
	fmt.Fprintf(&sb, "24h Low: `$%.4f`\n", quote.Low)
	fmt.Fprintf(&sb, "24h Volume: `%.0f TICS`\n", quote.Volume)
	fmt.Fprintf(&sb, "Source: `%s`\n", quote.Source)

	if quote.Source != core.SourceCombined {
		sb.WriteString("_Only one exchange is reporting right now._\n")
	}

	fmt.Fprintf(&sb, "Updated: `%s`", quote.UpdatedAt.UTC().Format(time.RFC3339))
	return sb.String()
}

// formatStatsMessage renders the per-exchange breakdown for /stats.
func formatStatsMessage(quote core.CompositeQuote) string {
	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.SetHeader([]string{"Exchange", "Price", "Volume", "Live"})

	for _, entry := range quote.Breakdown {
		live := "no"
		if entry.Live {
			live = "yes"
		}
		table.Append([]string{
			entry.Exchange,
			fmt.Sprintf("%.4f", entry.Price),
			fmt.Sprintf("%.0f", entry.Volume),
			live,
		})
	}

	table.SetFooter([]string{"COMPOSITE", fmt.Sprintf("%.4f", quote.Price), fmt.Sprintf("%.0f", quote.Volume), ""})
	table.Render()

	return fmt.Sprintf("*EXCHANGE BREAKDOWN*\n```\n%s```", buffer.String())
}

// formatAlertMessage renders a classified transfer alert.
func formatAlertMessage(alert core.Alert) string {
	var sb strings.Builder

	switch alert.Kind {
	case core.AlertDeposit:
		fmt.Fprintf(&sb, "📥 *%s DEPOSIT*\n", strings.ToUpper(alert.Exchange))
	case core.AlertWithdrawal:
		fmt.Fprintf(&sb, "📤 *%s WITHDRAWAL*\n", strings.ToUpper(alert.Exchange))
	case core.AlertWhale:
		sb.WriteString("🐋 *WHALE TRANSFER*\n")
	}

	sb.WriteString("-----\n")
	fmt.Fprintf(&sb, "Amount: `%s TICS` (`$%s`)\n", alert.Amount.String(), alert.USDValue.StringFixed(2))
	fmt.Fprintf(&sb, "From: `%s`\n", shortAddress(alert.From))
	fmt.Fprintf(&sb, "To: `%s`\n", shortAddress(alert.To))
	fmt.Fprintf(&sb, "Tx: `%s`", alert.TxHash)

	return sb.String()
}

// shortAddress truncates an address for display.
func shortAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:8] + "…" + address[len(address)-4:]
}
