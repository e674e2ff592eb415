package todo

import "strings"

// Generate builds the initial document for a fresh task. Market
// research requests get a research-shaped checklist; everything else
// gets the general template.
func Generate(description string) *Document {
	lower := strings.ToLower(description)
	if strings.Contains(lower, "market research") || strings.Contains(lower, "market analysis") {
		return marketResearchTemplate(description)
	}
	return defaultTemplate(description)
}

func defaultTemplate(description string) *Document {
	d := NewDocument("Task: " + description)
	d.Sections = []*Section{
		{Name: "Initial Research", Pending: []string{
			"Understand the requirements",
			"Identify key components needed",
			"Research best practices and approaches",
		}},
		{Name: "Implementation", Pending: []string{
			"Set up project structure",
			"Implement core functionality",
			"Add error handling and validation",
		}},
		{Name: "Testing", Pending: []string{
			"Test functionality",
			"Fix any bugs",
			"Verify requirements are met",
		}},
		{Name: "Delivery", Pending: []string{
			"Clean up code",
			"Add documentation",
			"Prepare final deliverables",
		}},
	}
	return d
}

func marketResearchTemplate(description string) *Document {
	// "market research for X" names the industry after the "for".
	industry := description
	if idx := strings.Index(strings.ToLower(description), "for "); idx >= 0 {
		if rest := strings.TrimSpace(description[idx+4:]); rest != "" {
			industry = rest
		}
	}

	d := NewDocument(industry + " Market Analysis")
	d.Sections = []*Section{
		{Name: "Initial Research", Pending: []string{
			"Define key " + industry + " industry segments",
			"Research overall " + industry + " market size and growth trends",
			"Identify major players across different segments",
		}},
		{Name: "Detailed Analysis", Pending: []string{
			"Gather detailed information on major players (market share, strengths, weaknesses)",
			"Collect website URLs for each major company",
			"Analyze market trends and opportunities",
		}},
		{Name: "Report Creation", Pending: []string{
			"Create a structured report outline",
			"Write comprehensive market analysis content",
			"Format the report with proper styling",
			"Generate the final PDF report",
		}},
		{Name: "Delivery", Pending: []string{
			"Review the final report for completeness and accuracy",
			"Share the PDF report with the user",
		}},
	}
	return d
}
