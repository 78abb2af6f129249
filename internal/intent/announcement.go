package intent

// AnnouncementDetector recognizes messages asking for a course announcement:
// an announcement code such as "#CursoIA1" or a greeting like
// "me interesa el curso".
type AnnouncementDetector struct {
	codes         map[string]string
	phrases       []string
	defaultCourse string
}

var defaultAnnouncementPhrases = []string{
	"me interesa el curso", "información del curso", "informacion del curso", "info del curso",
	"quiero información sobre el curso", "quiero saber del curso", "vi el anuncio", "vi su anuncio",
	"más información del curso", "detalles del curso",
}

// NewAnnouncementDetector creates a detector. Greeting phrases resolve to
// defaultCourse; nil phrases use the built-in list.
func NewAnnouncementDetector(codes map[string]string, phrases []string, defaultCourse string) *AnnouncementDetector {
	d := &AnnouncementDetector{codes: map[string]string{}, phrases: phrases, defaultCourse: defaultCourse}
	for code, id := range codes {
		d.codes[canonicalTag(code)] = id
	}
	if d.phrases == nil {
		d.phrases = defaultAnnouncementPhrases
	}
	return d
}

// Detect returns the announced course id from a code or a greeting phrase.
func (d *AnnouncementDetector) Detect(message string) (string, bool) {
	if id, ok := d.DetectCode(message); ok {
		return id, true
	}
	if d.defaultCourse == "" {
		return "", false
	}
	if _, ok := containsAnyPhrase(Fold(message), d.phrases); ok {
		return d.defaultCourse, true
	}
	return "", false
}

// DetectCode returns the course id of the first announcement code in message.
func (d *AnnouncementDetector) DetectCode(message string) (string, bool) {
	for _, tag := range ExtractHashtags(message) {
		if id, ok := d.codes[tag]; ok {
			return id, true
		}
	}
	return "", false
}
