package apiclient

import (
	"encoding/json"
	"time"
)

// TokenPair is returned by the remote auth endpoints.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}

// User is the remote account profile.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// AuthResult bundles the tokens and the profile they belong to.
type AuthResult struct {
	TokenPair
	User User `json:"user"`
}

// Contact is the header block of a resume.
type Contact struct {
	Name     string   `json:"name"`
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Location string   `json:"location,omitempty"`
	Links    []string `json:"links,omitempty"`
}

// ExperienceEntry is one role in the work history.
type ExperienceEntry struct {
	Company   string   `json:"company"`
	Title     string   `json:"title"`
	Location  string   `json:"location,omitempty"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
	Bullets   []string `json:"bullets"`
}

// EducationEntry is one degree or program.
type EducationEntry struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

// ProjectEntry is a notable project.
type ProjectEntry struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	Bullets     []string `json:"bullets"`
}

// CertificationEntry is a certification line.
type CertificationEntry struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
}

// ResumeContent is the structured body shared by resumes, tailored resumes
// and workshop sections. Suggestion paths are JSON pointers into it.
type ResumeContent struct {
	Contact        Contact              `json:"contact"`
	Summary        string               `json:"summary"`
	Experience     []ExperienceEntry    `json:"experience"`
	Education      []EducationEntry     `json:"education"`
	Skills         []string             `json:"skills"`
	Projects       []ProjectEntry       `json:"projects"`
	Certifications []CertificationEntry `json:"certifications"`
}

// ResumeStyle controls document formatting in the editor and exports.
type ResumeStyle struct {
	FontFamily      string  `json:"font_family"`
	FontSizeBody    float64 `json:"font_size_body"`
	FontSizeHeading float64 `json:"font_size_heading"`
	MarginTop       float64 `json:"margin_top"`
	MarginBottom    float64 `json:"margin_bottom"`
	MarginLeft      float64 `json:"margin_left"`
	MarginRight     float64 `json:"margin_right"`
	LineSpacing     float64 `json:"line_spacing"`
	SectionSpacing  float64 `json:"section_spacing"`
	AccentColor     string  `json:"accent_color"`
}

// Resume is a user's stored resume.
type Resume struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Content      ResumeContent `json:"content"`
	RawText      string        `json:"raw_text,omitempty"`
	Style        *ResumeStyle  `json:"style,omitempty"`
	SectionOrder []string      `json:"section_order,omitempty"`
	IsMaster     bool          `json:"is_master"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ResumeInput creates a resume.
type ResumeInput struct {
	Title    string         `json:"title"`
	RawText  string         `json:"raw_text,omitempty"`
	Content  *ResumeContent `json:"content,omitempty"`
	IsMaster bool           `json:"is_master,omitempty"`
}

// ResumeUpdate is a partial resume update; nil fields are left unchanged.
type ResumeUpdate struct {
	Title        *string        `json:"title,omitempty"`
	Content      *ResumeContent `json:"content,omitempty"`
	Style        *ResumeStyle   `json:"style,omitempty"`
	SectionOrder []string       `json:"section_order,omitempty"`
	IsMaster     *bool          `json:"is_master,omitempty"`
}

// Job is a job description the user is targeting.
type Job struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location,omitempty"`
	URL         string    `json:"url,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// JobInput creates or replaces a job.
type JobInput struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description"`
}

// Block is a reusable bullet point stored in the experience vault.
type Block struct {
	ID             string    `json:"id"`
	Content        string    `json:"content"`
	BlockType      string    `json:"block_type"`
	Tags           []string  `json:"tags"`
	SourceResumeID string    `json:"source_resume_id,omitempty"`
	Verified       bool      `json:"verified"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BlockInput creates or replaces a block.
type BlockInput struct {
	Content   string   `json:"content"`
	BlockType string   `json:"block_type"`
	Tags      []string `json:"tags,omitempty"`
	Verified  *bool    `json:"verified,omitempty"`
}

// BlockFilter narrows a vault listing.
type BlockFilter struct {
	Query     string
	BlockType string
	Tags      []string
	Limit     int
	Offset    int
}

// BlockMatch is a vault block ranked against a job.
type BlockMatch struct {
	Block Block   `json:"block"`
	Score float64 `json:"score"`
}

// Diff operations understood by the remote service.
const (
	OpAdd     = "add"
	OpReplace = "replace"
	OpRemove  = "remove"
)

// DiffSuggestion is a proposed patch against workshop sections.
type DiffSuggestion struct {
	ID            string          `json:"id"`
	Op            string          `json:"op"`
	Path          string          `json:"path"`
	Value         json.RawMessage `json:"value,omitempty"`
	OriginalValue json.RawMessage `json:"original_value,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	Impact        string          `json:"impact,omitempty"`
	SourceBlockID string          `json:"source_block_id,omitempty"`
}

// Workshop is a per-job workspace accumulating blocks and suggestions.
type Workshop struct {
	ID             string           `json:"id"`
	JobID          string           `json:"job_id"`
	JobTitle       string           `json:"job_title,omitempty"`
	Company        string           `json:"company,omitempty"`
	Status         string           `json:"status"`
	Sections       ResumeContent    `json:"sections"`
	SectionOrder   []string         `json:"section_order,omitempty"`
	PulledBlockIDs []string         `json:"pulled_block_ids"`
	PendingDiffs   []DiffSuggestion `json:"pending_diffs"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// TailoredResume is a generated resume variant scored against a job.
type TailoredResume struct {
	ID         string        `json:"id"`
	ResumeID   string        `json:"resume_id"`
	JobID      string        `json:"job_id"`
	Content    ResumeContent `json:"content"`
	MatchScore float64       `json:"match_score"`
	Style      *ResumeStyle  `json:"style,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// JobListing is an external posting surfaced by the remote search.
type JobListing struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	Remote      bool       `json:"remote"`
	SalaryMin   *int       `json:"salary_min,omitempty"`
	SalaryMax   *int       `json:"salary_max,omitempty"`
	URL         string     `json:"url,omitempty"`
	Description string     `json:"description,omitempty"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
}

// ListingQuery is a job listing search.
type ListingQuery struct {
	Query    string
	Location string
	Remote   bool
	Page     int
	PageSize int
}

// ListingPage is one page of listing search results.
type ListingPage struct {
	Items    []JobListing `json:"items"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// ExportFile is a rendered document returned by an export endpoint.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Normalized returns a copy with nil lists replaced by empty ones so JSON
// pointers such as /skills/- resolve against arrays.
func (c ResumeContent) Normalized() ResumeContent {
	out := c
	if out.Contact.Links == nil {
		out.Contact.Links = []string{}
	}
	out.Experience = make([]ExperienceEntry, len(c.Experience))
	for i, e := range c.Experience {
		if e.Bullets == nil {
			e.Bullets = []string{}
		}
		out.Experience[i] = e
	}
	if out.Education == nil {
		out.Education = []EducationEntry{}
	}
	if out.Skills == nil {
		out.Skills = []string{}
	}
	out.Projects = make([]ProjectEntry, len(c.Projects))
	for i, p := range c.Projects {
		if p.Bullets == nil {
			p.Bullets = []string{}
		}
		out.Projects[i] = p
	}
	if out.Certifications == nil {
		out.Certifications = []CertificationEntry{}
	}
	return out
}

// Section names used in section_order. The contact header is always first
// and is not part of the order.
const (
	SectionSummary        = "summary"
	SectionExperience     = "experience"
	SectionEducation      = "education"
	SectionSkills         = "skills"
	SectionProjects       = "projects"
	SectionCertifications = "certifications"
)

// DefaultSectionOrder is used when a resume carries no order of its own.
func DefaultSectionOrder() []string {
	return []string{
		SectionSummary,
		SectionExperience,
		SectionEducation,
		SectionSkills,
		SectionProjects,
		SectionCertifications,
	}
}

// IsSection reports whether name is a known section.
func IsSection(name string) bool {
	for _, s := range DefaultSectionOrder() {
		if s == name {
			return true
		}
	}
	return false
}
