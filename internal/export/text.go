package export

import (
	"strings"

	"resume-dashboard/internal/apiclient"
)

const rule = "----------------------------------------"

// RenderText lays the resume out as plain text: the contact header first,
// then each section of order that has content. An empty order uses the
// default section order.
func RenderText(content apiclient.ResumeContent, order []string) []byte {
	if len(order) == 0 {
		order = apiclient.DefaultSectionOrder()
	}

	var b strings.Builder
	writeHeader(&b, content.Contact)
	for _, name := range order {
		body := sectionText(content, name)
		if body == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.ToUpper(name))
		b.WriteString("\n")
		b.WriteString(rule)
		b.WriteString("\n")
		b.WriteString(body)
	}
	return []byte(b.String())
}

func writeHeader(b *strings.Builder, c apiclient.Contact) {
	if c.Name != "" {
		b.WriteString(c.Name)
		b.WriteString("\n")
	}
	line := joinNonEmpty(" | ", c.Email, c.Phone, c.Location)
	if line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	for _, link := range c.Links {
		if strings.TrimSpace(link) != "" {
			b.WriteString(link)
			b.WriteString("\n")
		}
	}
}

func sectionText(c apiclient.ResumeContent, name string) string {
	var b strings.Builder
	switch name {
	case apiclient.SectionSummary:
		if s := strings.TrimSpace(c.Summary); s != "" {
			b.WriteString(s)
			b.WriteString("\n")
		}
	case apiclient.SectionExperience:
		for i, e := range c.Experience {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(joinNonEmpty(", ", e.Title, e.Company))
			if e.Location != "" {
				b.WriteString(" (" + e.Location + ")")
			}
			b.WriteString("\n")
			if dates := dateRange(e.StartDate, e.EndDate); dates != "" {
				b.WriteString(dates)
				b.WriteString("\n")
			}
			writeBullets(&b, e.Bullets)
		}
	case apiclient.SectionEducation:
		for _, e := range c.Education {
			b.WriteString(joinNonEmpty(", ", joinNonEmpty(" in ", e.Degree, e.Field), e.Institution))
			if dates := dateRange(e.StartDate, e.EndDate); dates != "" {
				b.WriteString(" (" + dates + ")")
			}
			b.WriteString("\n")
		}
	case apiclient.SectionSkills:
		if s := joinNonEmpty(", ", c.Skills...); s != "" {
			b.WriteString(s)
			b.WriteString("\n")
		}
	case apiclient.SectionProjects:
		for i, p := range c.Projects {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(p.Name)
			if p.URL != "" {
				b.WriteString(" <" + p.URL + ">")
			}
			b.WriteString("\n")
			if p.Description != "" {
				b.WriteString(p.Description)
				b.WriteString("\n")
			}
			writeBullets(&b, p.Bullets)
		}
	case apiclient.SectionCertifications:
		for _, cert := range c.Certifications {
			b.WriteString(joinNonEmpty(", ", cert.Name, cert.Issuer, cert.Date))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeBullets(b *strings.Builder, bullets []string) {
	for _, line := range bullets {
		if line = strings.TrimSpace(line); line != "" {
			b.WriteString("  - ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
}

func dateRange(start, end string) string {
	if start == "" && end == "" {
		return ""
	}
	if end == "" {
		end = "Present"
	}
	if start == "" {
		return end
	}
	return start + " - " + end
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
