package builder

import (
	"strings"

	"github.com/nomoreats/builder/internal/profile"
	"github.com/nomoreats/builder/internal/sections"
)

// SectionCount is the badge number shown next to a section heading in the
// editing surface: the number of rows for object lists, the number of
// non-blank entries for string lists, 1 or 0 for the summary.
func SectionCount(p profile.Profile, id sections.ID) int {
	switch id {
	case sections.Summary:
		if strings.TrimSpace(p.Summary) != "" {
			return 1
		}
		return 0
	case sections.Experience:
		return len(p.Experience)
	case sections.EducationList:
		return len(p.Education)
	case sections.Projects:
		return len(p.Projects)
	case sections.Skills:
		return len(p.Skills)
	case sections.Publications:
		return len(p.Publications)
	case sections.Awards:
		return len(p.Awards)
	case sections.Volunteer:
		return len(p.Volunteer)
	case sections.Certifications:
		return countNonBlank(p.Certifications)
	case sections.Languages:
		return countNonBlank(p.Languages)
	case sections.Coursework:
		return countNonBlank(p.Coursework.Major) + countNonBlank(p.Coursework.Minor)
	}
	return 0
}

func countNonBlank(s []string) int {
	n := 0
	for _, v := range s {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}
