package qa

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/llmsdlc/workshop-qa/catalog"
)

// Category classifies a question as meta (answerable from the catalog) or
// content (needs transcript retrieval).
type Category string

const (
	CategorySpeakers         Category = "speakers"
	CategoryCourseStructure  Category = "course_structure"
	CategorySpecificDocument Category = "specific_document"
	CategoryContent          Category = "content"
)

type metaRule struct {
	category Category
	patterns []*regexp.Regexp
}

// MetaClassifier pattern-matches questions against a small ordered rule set.
// The first matching category wins; no match means content. The patterns are
// deliberately broad, so some content questions phrased like "what does X
// cover" land on the metadata path.
type MetaClassifier struct {
	rules []metaRule
}

func NewMetaClassifier() *MetaClassifier {
	compile := func(patterns ...string) []*regexp.Regexp {
		compiled := make([]*regexp.Regexp, len(patterns))
		for i, p := range patterns {
			compiled[i] = regexp.MustCompile(p)
		}
		return compiled
	}

	return &MetaClassifier{rules: []metaRule{
		{
			category: CategorySpeakers,
			patterns: compile(
				`\bwho (gave|presents?|presented|taught|teaches|is|are)\b`,
				`\b(speakers?|instructors?|teachers?|presenters?|hosts?)\b`,
				`\bwho.*(workshop|session)`,
			),
		},
		{
			category: CategoryCourseStructure,
			patterns: compile(
				`\b(what|which) are.*(workshops?|course|sessions?)\b`,
				`\blist.*(workshops?|course|sessions?)\b`,
				`\b(how many|number of) workshops?\b`,
				`\bcourse (structure|overview|topics|summary)\b`,
				`tell me about the course`,
			),
		},
		{
			category: CategorySpecificDocument,
			patterns: compile(
				`\bworkshop\s*([1-8]|one|two|three|four|five|six|seven|eight)\b`,
				`\bws\s*[1-8]\b`,
				`\b(first|second|third|fourth|fifth|sixth|seventh|eighth) workshop\b`,
				`\b(1st|2nd|3rd|[4-8]th) workshop\b`,
				`\bwhat.*(workshop|session).*cover\b`,
				`tell me about.*workshop\b`,
				`information on.*workshop`,
			),
		},
	}}
}

func (c *MetaClassifier) Classify(question string) Category {
	questionLower := strings.ToLower(question)
	for _, rule := range c.rules {
		for _, pattern := range rule.patterns {
			if pattern.MatchString(questionLower) {
				return rule.category
			}
		}
	}
	return CategoryContent
}

var (
	workshopNumberPattern = regexp.MustCompile(`workshop\s*([1-8])`)
	workshopIDPattern     = regexp.MustCompile(`ws\s*([1-8])`)
)

// MetaAnswerer renders answers to meta-questions from the static catalog. No
// retrieval or generation collaborator is involved.
type MetaAnswerer struct {
	catalog *catalog.Catalog
}

func NewMetaAnswerer(cat *catalog.Catalog) *MetaAnswerer {
	return &MetaAnswerer{catalog: cat}
}

// Answer produces the catalog-backed answer for a classified question. The
// boolean is false when the category cannot be resolved (for example a
// specific-document question naming no identifiable workshop); the caller
// then falls back to the content path.
func (m *MetaAnswerer) Answer(question string, category Category) (string, bool) {
	switch category {
	case CategorySpeakers:
		return m.answerSpeakers(question), true
	case CategoryCourseStructure:
		return m.answerCourseStructure(), true
	case CategorySpecificDocument:
		return m.answerSpecificWorkshop(question)
	default:
		return "", false
	}
}

func (m *MetaAnswerer) answerSpeakers(question string) string {
	if strings.Contains(strings.ToLower(question), "first") && len(m.catalog.Workshops) > 0 {
		first := m.catalog.Workshops[0]
		return fmt.Sprintf("The first workshop %q was given by **%s**, who is the main instructor and course creator.", first.Title, first.Instructor)
	}

	var sb strings.Builder
	sb.WriteString("**Course Speakers and Instructors:**\n")
	for _, speaker := range m.catalog.Speakers {
		fmt.Fprintf(&sb, "\n**%s** - %s\n", speaker.Name, speaker.Role)
		if speaker.Specialty != "" {
			fmt.Fprintf(&sb, "  - Specialty: %s\n", speaker.Specialty)
		}
		if len(speaker.Workshops) > 0 {
			fmt.Fprintf(&sb, "  - Workshops: %s\n", strings.Join(speaker.Workshops, ", "))
		}
	}
	return sb.String()
}

func (m *MetaAnswerer) answerCourseStructure() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**\n\n", m.catalog.CourseTitle)
	fmt.Fprintf(&sb, "This course contains **%d workshops** covering %s.\n\n", len(m.catalog.Workshops), m.catalog.CourseDescription)
	sb.WriteString("**Complete Workshop List:**\n")
	for _, workshop := range m.catalog.Workshops {
		instructor := workshop.Instructor
		if workshop.GuestSpeaker != "" {
			instructor += fmt.Sprintf(" (with guest %s)", workshop.GuestSpeaker)
		}
		fmt.Fprintf(&sb, "\n**%s**: %s\n", workshop.ID, workshop.Title)
		fmt.Fprintf(&sb, "  - Instructor: %s\n", instructor)
	}
	return sb.String()
}

func (m *MetaAnswerer) answerSpecificWorkshop(question string) (string, bool) {
	questionLower := strings.ToLower(question)

	var workshopID string
	if match := workshopNumberPattern.FindStringSubmatch(questionLower); match != nil {
		workshopID = "WS" + match[1]
	} else if match := workshopIDPattern.FindStringSubmatch(questionLower); match != nil {
		workshopID = "WS" + match[1]
	} else if strings.Contains(questionLower, "first") && len(m.catalog.Workshops) > 0 {
		workshopID = m.catalog.Workshops[0].ID
	}

	workshop, ok := m.catalog.Lookup(workshopID)
	if !ok {
		return "", false
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s: %s**\n\n", workshop.ID, workshop.Title)
	fmt.Fprintf(&sb, "**Instructor**: %s\n", workshop.Instructor)
	if workshop.GuestSpeaker != "" {
		fmt.Fprintf(&sb, "**Guest Speaker**: %s\n", workshop.GuestSpeaker)
	}
	sb.WriteString("\n**Topics Covered:**\n")
	for _, topic := range workshop.Topics {
		fmt.Fprintf(&sb, "- %s\n", topic)
	}
	return sb.String(), true
}
