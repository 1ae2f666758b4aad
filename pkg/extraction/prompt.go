package extraction

import "fmt"

// systemPrompt pins the assistant role for the extraction request.
const systemPrompt = "You are an assistant for entity/relation extraction."

// promptTemplate is the fixed instruction template. The response must embed
// a single JSON object; everything around it is tolerated and stripped by
// the parser.
const promptTemplate = `Extract entities and relations from the following text. Return JSON only in this format:

{
  "title": "...",
  "entities": [
    {
      "id": "E1",
      "type": "Organization | Person | Date | Money | Clause | Term | ...",
      "text": "...",
      "canonical": "..."
    }
  ],
  "relations": [
    {
      "from": "E1",
      "to": "E2",
      "type": "employs | owes | mentions | amends | ...",
      "confidence": 0.0,
      "evidence_span": "..."
    }
  ]
}

Text: %q`

// RenderPrompt embeds chunk text into the instruction template.
func RenderPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

// EmptyTemplate returns the template rendered with an empty chunk. The
// budget fitter charges its token estimate as fixed overhead.
func EmptyTemplate() string {
	return RenderPrompt("")
}
