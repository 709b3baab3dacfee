package monitor

import (
	"fmt"
	"html"
	"strings"

	"github.com/AndreaCasaluci/train-scraper/internal/trenitalia"
)

// PriceNotAvailable is rendered whenever a solution carries no usable
// price data.
const PriceNotAvailable = "N/A"

// Fragment is one piece of notification content in both renderings. The
// caller concatenates fragments (header, per-date bodies, footer) and
// decides whether anything is worth sending.
type Fragment struct {
	HTML string
	Text string
}

func (f Fragment) Append(other Fragment) Fragment {
	return Fragment{HTML: f.HTML + other.HTML, Text: f.Text + other.Text}
}

func Header() Fragment {
	return Fragment{
		HTML: `<html><body><h2>New Train Availability</h2><p>Here are new trains found:</p>`,
		Text: "New Train Availability\nHere are new trains found:\n",
	}
}

func Footer() Fragment {
	return Fragment{
		HTML: `<p>End of list.</p></body></html>`,
		Text: "End of list.\n",
	}
}

// Body renders the new solutions for one date. Pure and total: missing
// optional fields degrade to sentinel text, never to an error.
func Body(solutions []trenitalia.TicketSolution, date string) Fragment {
	var h, t strings.Builder

	fmt.Fprintf(&h, "<h3>For Date: %s</h3>", html.EscapeString(date))
	fmt.Fprintf(&t, "\nFor Date: %s\n", date)

	for _, sol := range solutions {
		j := sol.Solution
		lead := leadTrain(sol)
		price := FormatPrice(j.Price)

		fmt.Fprintf(&h, "<p><b>%s</b> (%s) %s<br>%s &rarr; %s<br>Departure: %s &mdash; Arrival: %s (%s)<br>Price: %s",
			html.EscapeString(lead.Name),
			html.EscapeString(lead.TrainCategory),
			html.EscapeString(lead.Description),
			html.EscapeString(j.Origin),
			html.EscapeString(j.Destination),
			html.EscapeString(j.DepartureTime),
			html.EscapeString(j.ArrivalTime),
			html.EscapeString(j.Duration),
			html.EscapeString(price),
		)
		fmt.Fprintf(&t, "- %s (%s) %s | %s -> %s | dep %s arr %s (%s) | price %s\n",
			lead.Name, lead.TrainCategory, lead.Description,
			j.Origin, j.Destination,
			j.DepartureTime, j.ArrivalTime, j.Duration,
			price,
		)

		if sol.CO2Emission != nil && len(sol.CO2Emission.VehicleDetails) > 0 {
			h.WriteString("<br>CO2 emissions:")
			t.WriteString("  CO2 emissions:\n")
			for _, v := range sol.CO2Emission.VehicleDetails {
				fmt.Fprintf(&h, " %s %.2f kg", html.EscapeString(v.Type), v.KgEmissions)
				fmt.Fprintf(&t, "    %s: %.2f kg\n", v.Type, v.KgEmissions)
			}
		}
		h.WriteString("</p>")
	}

	return Fragment{HTML: h.String(), Text: t.String()}
}

// FormatPrice renders an amount with its currency, falling back to the
// sentinel when the price or amount is absent.
func FormatPrice(p *trenitalia.Price) string {
	if p == nil || p.Amount == nil {
		return PriceNotAvailable
	}
	if p.Currency != nil && *p.Currency != "" {
		return fmt.Sprintf("%.2f %s", *p.Amount, *p.Currency)
	}
	return fmt.Sprintf("%.2f", *p.Amount)
}

func leadTrain(sol trenitalia.TicketSolution) trenitalia.Train {
	if len(sol.Solution.Trains) == 0 {
		return trenitalia.Train{}
	}
	return sol.Solution.Trains[0]
}
