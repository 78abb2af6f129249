// Package config loads Brenda's runtime settings: environment values and the
// YAML campaign file (hashtag tables, FAQ overrides, catalog, bank details).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/BTreeMap/Brenda/internal/content"
	"github.com/BTreeMap/Brenda/internal/intent"
	"github.com/BTreeMap/Brenda/internal/models"
)

// Campaigns is the content of the campaign file. Empty sections keep their defaults.
type Campaigns struct {
	CourseHashtags     map[string]string  `yaml:"course_hashtags"`
	CampaignHashtags   []string           `yaml:"campaign_hashtags"`
	AnnouncementCodes  map[string]string  `yaml:"announcement_codes"`
	AnnouncementCourse string             `yaml:"announcement_course"`
	FAQs               []intent.FAQEntry  `yaml:"faqs"`
	Courses            []models.Course    `yaml:"courses"`
	Bonuses            []models.Bonus     `yaml:"bonuses"`
	Bank               models.BankDetails `yaml:"bank"`
}

// DefaultCampaigns returns the built-in tables for the IA course campaigns.
func DefaultCampaigns() Campaigns {
	return Campaigns{
		CourseHashtags: map[string]string{
			"#Experto_IA_GPT_Gemini": "experto-ia-gpt-gemini",
			"#Automatizacion_IA":     "automatizacion-ia",
			"#Marketing_IA":          "marketing-ia",
		},
		CampaignHashtags: []string{"#ADSIM_05", "#ADSFB_01", "#ADSIG_02"},
		AnnouncementCodes: map[string]string{
			"#CursoIA1": "experto-ia-gpt-gemini",
			"#CursoIA2": "automatizacion-ia",
			"#CursoIA3": "marketing-ia",
		},
		AnnouncementCourse: "experto-ia-gpt-gemini",
		FAQs:               intent.DefaultFAQs(),
		Courses:            content.DefaultCourses(),
		Bonuses:            content.DefaultBonuses(),
		Bank: models.BankDetails{
			Bank:          "BBVA México",
			AccountHolder: "Aprenda y Aplique IA S.A. de C.V.",
			CLABE:         "012180001234567891",
			Reference:     "Tu nombre completo",
		},
	}
}

// LoadCampaigns reads path and fills unset sections from the defaults.
// An empty path returns the defaults.
func LoadCampaigns(path string) (Campaigns, error) {
	def := DefaultCampaigns()
	if path == "" {
		return def, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Campaigns{}, fmt.Errorf("failed to read campaigns file %s: %w", path, err)
	}
	return ParseCampaigns(data)
}

// ParseCampaigns decodes YAML campaign data over the defaults.
func ParseCampaigns(data []byte) (Campaigns, error) {
	var c Campaigns
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Campaigns{}, fmt.Errorf("failed to parse campaigns: %w", err)
	}
	def := DefaultCampaigns()
	if len(c.CourseHashtags) == 0 {
		c.CourseHashtags = def.CourseHashtags
	}
	if len(c.CampaignHashtags) == 0 {
		c.CampaignHashtags = def.CampaignHashtags
	}
	if len(c.AnnouncementCodes) == 0 {
		c.AnnouncementCodes = def.AnnouncementCodes
	}
	if c.AnnouncementCourse == "" {
		c.AnnouncementCourse = def.AnnouncementCourse
	}
	if len(c.FAQs) == 0 {
		c.FAQs = def.FAQs
	}
	if len(c.Courses) == 0 {
		c.Courses = def.Courses
	}
	if len(c.Bonuses) == 0 {
		c.Bonuses = def.Bonuses
	}
	if c.Bank.CLABE == "" {
		c.Bank = def.Bank
	}
	return c, nil
}

// Tables converts the campaign file into matcher tables.
func (c Campaigns) Tables() intent.Tables {
	return intent.Tables{
		CourseHashtags:     c.CourseHashtags,
		CampaignHashtags:   c.CampaignHashtags,
		AnnouncementCodes:  c.AnnouncementCodes,
		AnnouncementCourse: c.AnnouncementCourse,
		FAQs:               c.FAQs,
	}
}
