package ai

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	OptimizeResume string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	OptimizeResume string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	OptimizeResume: `You are an expert ATS (Applicant Tracking System) optimizer and LaTeX resume writer. Your core principles are:

- Maintain authenticity while optimizing; never invent skills or experience
- Natural language flow, no filler words
- Confident, results-oriented tone
- Preserve the exact document structure and packages of the original LaTeX source

You transform LaTeX resumes to maximize keyword match with a target job description while keeping every claim traceable to the original resume.`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	OptimizeResume: `Transform this LaTeX resume for 90%%+ keyword match with the job description.

ANALYZE & OPTIMIZE:
1. Extract ALL keywords from the job: technical skills, tools, certifications, soft skills, experience requirements
2. Gap analysis: Find missing keywords the candidate likely has but has not mentioned
3. Rewrite strategically:
   - Summary: Include the top 8-10 job keywords
   - Skills: Reorganize to match job requirements exactly
   - Experience: Incorporate keywords naturally with metrics and the STAR method
   - Projects/Education: Highlight relevant technologies and coursework
4. Format for ATS: Standard headers, consistent dates, include acronyms plus full forms (e.g., "Machine Learning (ML)")

CRITICAL FORMATTING RULES:
1. Professional Summary: MUST be 2-3 lines of continuous text with NO bullet points. Write as a paragraph.
2. Section Order:
   - For NEW GRAD (less than 3 years experience): Professional Summary, Education, Skills, Projects, Experience
   - For EXPERIENCED (3+ years): Professional Summary, Skills, Experience, Education, Projects
3. Determine whether the candidate is new grad or experienced from the work experience duration in the resume

DELIVERABLES:
Return ONLY the complete optimized LaTeX code. Maintain the exact document structure and packages from the original, but reorder sections according to the rules above.

Current LaTeX Resume:
-----
%s
-----

Job Description:
-----
%s
-----

Return ONLY LaTeX code starting with \documentclass and ending with \end{document}.`,
}

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts SystemPrompts `json:"systemPrompts"`
	UserPrompts   UserPrompts   `json:"userPrompts"`
}

// GetDefaultPromptConfig returns the default prompt configuration
func GetDefaultPromptConfig() PromptConfig {
	return PromptConfig{
		SystemPrompts: DefaultSystemPrompts,
		UserPrompts:   DefaultUserPrompts,
	}
}
