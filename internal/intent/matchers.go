package intent

// Tables holds the configurable lookup tables of the matchers.
type Tables struct {
	// CourseHashtags maps ad hashtags ("#Experto_IA_GPT_Gemini") onto course ids.
	CourseHashtags map[string]string
	// CampaignHashtags lists ad campaign hashtags ("#ADSIM_05").
	CampaignHashtags []string
	// AnnouncementCodes maps announcement codes ("#CursoIA1") onto course ids.
	AnnouncementCodes map[string]string
	// AnnouncementCourse is announced for greeting phrases without a code.
	AnnouncementCourse string
	FAQs               []FAQEntry
}

// Matchers bundles the configured detectors used by the flows.
type Matchers struct {
	Hashtags      *HashtagDetector
	Announcements *AnnouncementDetector
	FAQ           *FAQMatcher
	Keywords      *KeywordClassifier
}

// NewMatchers builds all detectors from t.
func NewMatchers(t Tables) *Matchers {
	faq := NewFAQMatcher(t.FAQs)
	return &Matchers{
		Hashtags:      NewHashtagDetector(t.CourseHashtags, t.CampaignHashtags),
		Announcements: NewAnnouncementDetector(t.AnnouncementCodes, nil, t.AnnouncementCourse),
		FAQ:           faq,
		Keywords:      NewKeywordClassifier(faq),
	}
}
