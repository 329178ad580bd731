package service

import (
	"context"
	"sort"
	"strings"

	"github.com/craftfolio/portfolio-server-go/internal/model"
)

// Static rule-matching suggestion data. This is a stub, not inference: a
// fixed catalog scored against the portfolio's skill names.

type Recruiter struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Company    string `json:"company"`
	Position   string `json:"position"`
	Linkedin   string `json:"linkedin"`
	MatchScore int    `json:"matchScore"`
	Reason     string `json:"reason"`
}

type JobListing struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Company    string `json:"company"`
	Type       string `json:"type"`
	Location   string `json:"location"`
	MatchScore int    `json:"matchScore"`
	Reason     string `json:"reason"`
}

type Suggestions struct {
	Recruiters []Recruiter  `json:"recruiters"`
	Jobs       []JobListing `json:"jobs"`
}

var catalogRecruiters = []Recruiter{
	{ID: "1", Name: "Arjun Mehta", Company: "TCS", Position: "Senior Software Engineer", Linkedin: "https://linkedin.com/in/arjun-mehta"},
	{ID: "2", Name: "Kavita Rao", Company: "Infosys", Position: "Tech Lead", Linkedin: "https://linkedin.com/in/kavita-rao"},
	{ID: "3", Name: "Rohit Jain", Company: "Wipro", Position: "Project Manager", Linkedin: "https://linkedin.com/in/rohit-jain"},
	{ID: "4", Name: "Meera Iyer", Company: "Accenture", Position: "HR Manager", Linkedin: "https://linkedin.com/in/meera-iyer"},
}

var catalogJobs = []JobListing{
	{ID: "1", Title: "Full Stack Developer", Company: "TechCorp", Type: "Full-time", Location: "Remote"},
	{ID: "2", Title: "Frontend Developer", Company: "StartupXYZ", Type: "Internship", Location: "Bangalore"},
	{ID: "3", Title: "Python Developer", Company: "DataTech", Type: "Full-time", Location: "Mumbai"},
	{ID: "4", Title: "React Developer", Company: "WebSolutions", Type: "Contract", Location: "Delhi"},
}

// ChatbotService scores the static catalog against a portfolio's skills.
type ChatbotService struct {
	portfolios *PortfolioService
}

func NewChatbotService(portfolios *PortfolioService) *ChatbotService {
	return &ChatbotService{portfolios: portfolios}
}

// Suggest returns the top catalog matches for the user's portfolio.
func (s *ChatbotService) Suggest(ctx context.Context, userID string) (*Suggestions, error) {
	portfolio, err := s.portfolios.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return analyzePortfolio(portfolio), nil
}

// Recruiters returns the full browseable catalog.
func (s *ChatbotService) Recruiters() []Recruiter {
	out := make([]Recruiter, len(catalogRecruiters))
	copy(out, catalogRecruiters)
	return out
}

// Jobs returns the full browseable catalog.
func (s *ChatbotService) Jobs() []JobListing {
	out := make([]JobListing, len(catalogJobs))
	copy(out, catalogJobs)
	return out
}

func analyzePortfolio(portfolio *model.Portfolio) *Suggestions {
	skillNames := make(map[string]bool, len(portfolio.Skills))
	for _, skill := range portfolio.Skills {
		skillNames[strings.ToLower(skill.Name)] = true
	}

	var recruiters []Recruiter
	for _, r := range catalogRecruiters {
		switch {
		case skillNames["react"] && r.Company == "TCS":
			r.MatchScore = 95
			r.Reason = "Your React and Node.js skills match their requirements perfectly"
		case skillNames["python"] && r.Company == "Infosys":
			r.MatchScore = 88
			r.Reason = "Strong Python background aligns with their current projects"
		case skillNames["javascript"] || skillNames["node.js"]:
			r.MatchScore = 75
			r.Reason = "Your technical skills align with their needs"
		}
		if r.MatchScore > 0 {
			recruiters = append(recruiters, r)
		}
	}

	var jobs []JobListing
	for _, j := range catalogJobs {
		switch {
		case skillNames["react"] && strings.Contains(j.Title, "React"):
			j.MatchScore = 88
			j.Reason = "Modern React applications development"
		case skillNames["python"] && strings.Contains(j.Title, "Python"):
			j.MatchScore = 78
			j.Reason = "Strong Python skills required for data processing"
		case skillNames["javascript"] || skillNames["node.js"]:
			j.MatchScore = 80
			j.Reason = "Your portfolio shows relevant technical experience"
		}
		if j.MatchScore > 0 {
			jobs = append(jobs, j)
		}
	}

	sort.Slice(recruiters, func(a, b int) bool { return recruiters[a].MatchScore > recruiters[b].MatchScore })
	sort.Slice(jobs, func(a, b int) bool { return jobs[a].MatchScore > jobs[b].MatchScore })

	const top = 3
	if len(recruiters) > top {
		recruiters = recruiters[:top]
	}
	if len(jobs) > top {
		jobs = jobs[:top]
	}

	return &Suggestions{Recruiters: recruiters, Jobs: jobs}
}
