package research

import (
	"fmt"
	"strings"
	"time"

	"techcal/internal/models"
)

const systemPrompt = `You are a research assistant that finds the dates of annually recurring technology events. Use only authoritative sources such as the event's official website or official press announcements. Answer with a single JSON object and nothing else.`

const answerSchema = `Respond with a JSON object with exactly these fields:
{
  "year": <integer, the year the occurrence takes place>,
  "start_date": <"YYYY-MM-DD" or null if unknown>,
  "end_date": <"YYYY-MM-DD" or null if unknown or single-day>,
  "location": <string, city and venue if known, else "">,
  "timezone": <string, IANA timezone of the venue, else "">,
  "confident": <boolean, true if the dates come from a credible source>,
  "confirmed": <boolean, true only if officially announced by the organizer>,
  "announcement_url": <string, URL of the official announcement, else "">
}

Set "confirmed" to true only when the organizer has published the dates.
If you can only estimate from past years, set "confident" as appropriate
and "confirmed" to false. Never invent dates: prefer null dates over guesses.`

// buildPrompt renders the user message for one series and target year.
// The series queries are hints carried over from configuration.
func buildPrompt(series models.Series, year int, today time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Today is %s.\n\n", today.Format(models.DateLayout))
	fmt.Fprintf(&b, "Find the dates of %q for the year %d.\n", series.Name, year)

	if len(series.Queries) > 0 {
		b.WriteString("Search hints:\n")

		for _, q := range series.Queries {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}

	b.WriteString("\n")
	b.WriteString(answerSchema)

	return b.String()
}
