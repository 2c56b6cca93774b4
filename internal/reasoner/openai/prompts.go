package openai

import (
	"fmt"
	"strings"

	"github.com/Moniqchege/resume-builder/internal/reasoner"
)

const extractSystemPrompt = `You are an expert ATS recruiter. Extract ONLY job-critical keywords from the job description.
Return a JSON object with exactly these keys:
- required: string[]   (must-have technical skills, tools, qualifications)
- preferred: string[]  (nice-to-have skills)
- soft: string[]       (soft skills and methodologies)
Keep each keyword concise (1-3 words). Aim for 15-25 required keywords total.`

const scoreSystemPrompt = `You are an ATS scoring engine. Analyze the resume against the job description.
Return a JSON object with exactly these keys (all integers 0-100):
- keywordScore:    how well keywords are matched
- formatScore:     ATS-friendliness of format
- experienceScore: experience/seniority alignment
- skillsScore:     skills coverage
- actionWordScore: quality of action verbs`

const suggestSystemPrompt = `You are a resume coach. Given ATS analysis results, write 3 specific, actionable improvement suggestions.
Return a JSON object: { "suggestions": [{"icon": string, "color": string, "title": string, "body": string}] }
Use these colors: #7B2FFF, #00D4FF, #FF4D6D (one each, in order)
Keep body under 120 characters. Be very specific about what to add.`

const rewriteSystemPrompt = `You are a professional resume writer specializing in ATS optimization.
Rewrite the resume to naturally incorporate the confirmed skills.
Hard rules:
- Only the confirmed skills listed by the user may be added to the resume.
- Do NOT claim any skill, tool, or qualification beyond the original resume text plus the confirmed skills.
- Do NOT attribute a newly added skill to a time period before the candidate confirmed acquiring it.
- Keep the candidate's real achievements and employment history unchanged.
- Return ONLY the rewritten resume text, no explanation.`

func extractUserPrompt(jobDescription string) string {
	return fmt.Sprintf("Extract keywords from this job description:\n\n%s", jobDescription)
}

func scoreUserPrompt(input reasoner.ScoreInput) string {
	return fmt.Sprintf("TARGET KEYWORDS: %s\n\nJOB DESCRIPTION:\n%s\n\nRESUME:\n%s",
		strings.Join(input.Keywords, ", "), input.JobDescription, input.ResumeText)
}

func suggestUserPrompt(input reasoner.SuggestInput) string {
	return fmt.Sprintf(`Job: %s at %s
Score: %d/100
Missing keywords: %s
Lowest scoring areas based on scores:
- Keyword: %d
- Format: %d
- Experience: %d
- Skills: %d
- Action words: %d`,
		input.JobTitle, input.Company,
		input.OverallScore,
		strings.Join(input.MissingKeywords, ", "),
		input.SubScores.Keyword,
		input.SubScores.Format,
		input.SubScores.Experience,
		input.SubScores.Skills,
		input.SubScores.ActionWord)
}

func rewriteUserPrompt(input reasoner.RewriteInput) string {
	return fmt.Sprintf("Confirmed skills to weave in: %s\n\nJOB DESCRIPTION:\n%s\n\nORIGINAL RESUME:\n%s",
		strings.Join(input.ConfirmedSkills, ", "), input.JobDescription, input.ResumeText)
}
