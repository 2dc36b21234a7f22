package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert résumé writer who tailors a candidate's real experience to a specific job opportunity. You never invent employers, titles, dates, degrees or metrics."

const contentShape = `{
  "name": "candidate full name",
  "headline": "one-line professional headline",
  "contact": {"email": "", "phone": "", "location": "", "linkedin": "", "website": ""},
  "summary": "3-4 sentence professional summary",
  "experience": [
    {"organization": "company", "title": "role", "time": "2020 - Present", "bullets": ["achievement with measurable result"]}
  ],
  "education": [
    {"school": "institution", "degree": "degree and field", "time": "2012 - 2016", "details": ""}
  ],
  "skills": [{"skill": "Go", "level": "Expert"}],
  "achievements": ["award, certification or notable accomplishment"]
}`

// buildOptimizePrompt creates the user prompt for one optimization call.
func buildOptimizePrompt(req OptimizeRequest) (prompt string) {
	var b strings.Builder

	if req.Prior != nil {
		priorJSON, _ := json.MarshalIndent(req.Prior, "", "  ")
		fmt.Fprintf(&b, "You are updating an existing résumé with new information. Integrate the new material while keeping the structure and quality of the existing résumé.\n\nEXISTING RESUME (JSON):\n%s\n\n", string(priorJSON))
		fmt.Fprintf(&b, "NEW INFORMATION TO INTEGRATE:\n%s\n\n", req.RawText)
	} else {
		b.WriteString("Extract the candidate's most relevant experience from their documents and produce a résumé tailored to the target job.\n\n")
		fmt.Fprintf(&b, "USER DOCUMENTS:\n%s\n\n", req.RawText)
	}

	if strings.TrimSpace(req.JobDescription) != "" {
		fmt.Fprintf(&b, "TARGET JOB DESCRIPTION:\n%s\n\n", req.JobDescription)
	}

	if strings.TrimSpace(req.StyleReference) != "" {
		fmt.Fprintf(&b, "STYLE REFERENCE (match its tone, section emphasis and bullet style, not its facts):\n%s\n\n", req.StyleReference)
	}

	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("1. Use only facts present in the documents")
	if req.Prior != nil {
		b.WriteString(" or the existing résumé")
	}
	b.WriteString("; do not invent experience.\n")
	b.WriteString("2. Prioritize experience, skills and achievements that match the job requirements.\n")
	b.WriteString("3. Lead bullets with strong verbs and keep quantifiable results.\n")
	b.WriteString("4. Use keywords from the job description where they are truthful.\n")
	if req.Prior != nil {
		b.WriteString("5. Keep every existing experience entry unless the new information supersedes it; keep the most recent and impactful items first.\n")
	} else {
		b.WriteString("5. List experience most recent first.\n")
	}
	fmt.Fprintf(&b, "6. %s\n\n", req.Language.instructions())

	fmt.Fprintf(&b, "Return ONLY valid JSON in this exact format (no markdown, no commentary). Omit unknown contact fields rather than guessing:\n%s", contentShape)

	prompt = b.String()
	return prompt
}
