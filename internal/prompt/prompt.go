// Package prompt holds the Dutch prompt templates and the content cleanup
// applied before chunk text is handed to the language model. Templates live
// here rather than in the orchestrators so the domain wording can change
// without touching orchestration logic.
package prompt

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// Labels is the closed category set used for document classification. The
// model must answer with exactly one of these.
var Labels = []string{
	"Motie",
	"Amendement",
	"Brief van derden",
	"Brief van Gedeputeerde Staten (GS)",
	"Verslag",
	"Statenvoorstel",
	"Nota",
	"Overig",
}

const summaryTemplate = "Geef een samenvatting van de volgende tekst: %s. " +
	"Beschrijf kort wat de kern van de tekst is en wees concreet. Verzin geen zaken erbij. " +
	"Begin je tekst NIET met 'De tekst beschrijft' of 'de inhoud van de tekst', zorg dat het een vloeiende tekst is. " +
	"Deze tekst is bedoeld voor Statenleden, dus jargon over overheidsterminologie mag gebruikt worden. " +
	"Beperk je tot maximaal 4 a 5 zinnen. Vermijd vage en onnodige zinnen. " +
	"Benoem alleen relevante zaken; als je echt niks inhoudelijks kan vinden, geef dat dan in één zin aan en omschrijf alleen het onderwerp."

const labelTemplate = "Classificeer het volgende document met precies één van deze categorieën: %s. " +
	"Titel: %s. Samenvatting: %s. Tekst: %s. " +
	"Antwoord uitsluitend met de categorienaam, zonder toelichting."

const chatTemplate = "Geef antwoord op de gestelde vraag: %s op basis van de volgende context: %s. " +
	"Houd het antwoord kort en ter zake. Als het antwoord niet in de context staat, geef dat dan aan."

// Summary renders the summarization prompt over cleaned chunk content.
func Summary(content string) string {
	return fmt.Sprintf(summaryTemplate, content)
}

// Label renders the single-label classification prompt seeded with the
// document title, its generated summary, and the chunk content.
func Label(title, summary, content string) string {
	return fmt.Sprintf(labelTemplate, strings.Join(Labels, ", "), title, summary, content)
}

// Chat renders the question-answering prompt over the retrieved chunk texts.
func Chat(question string, contexts []string) string {
	return fmt.Sprintf(chatTemplate, question, strings.Join(contexts, "\n\n"))
}

// CleanContent strips HTML entities, squeezes whitespace, and caps the text
// at maxRunes so one oversized chunk cannot blow up the prompt.
func CleanContent(input string, maxRunes int) string {
	decoded := html.UnescapeString(input)
	decoded = whitespace.ReplaceAllString(decoded, " ")
	decoded = strings.TrimSpace(decoded)

	if maxRunes > 0 {
		if runes := []rune(decoded); len(runes) > maxRunes {
			decoded = string(runes[:maxRunes])
		}
	}
	return decoded
}
