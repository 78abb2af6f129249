package intent

import (
	"regexp"
	"strings"
)

var hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// ExtractHashtags returns the lowercased hashtags of a message in order.
func ExtractHashtags(message string) []string {
	found := hashtagPattern.FindAllString(message, -1)
	out := make([]string, 0, len(found))
	for _, h := range found {
		out = append(out, strings.ToLower(h))
	}
	return out
}

// HashtagMatch describes the course and campaign hashtags found in a message.
type HashtagMatch struct {
	CourseID    string
	CourseTag   string
	CampaignTag string
}

// HasCourse reports whether a known course hashtag was found.
func (h HashtagMatch) HasCourse() bool { return h.CourseID != "" }

// HasCampaign reports whether a known campaign hashtag was found.
func (h HashtagMatch) HasCampaign() bool { return h.CampaignTag != "" }

// IsAdEntry reports the co-occurrence of a course and a campaign hashtag.
func (h HashtagMatch) IsAdEntry() bool { return h.HasCourse() && h.HasCampaign() }

// HashtagDetector maps ad hashtags onto course ids and campaigns.
type HashtagDetector struct {
	courses   map[string]string
	campaigns map[string]struct{}
}

// NewHashtagDetector builds a detector from hashtag->course id and campaign tables.
// Tags are matched case-insensitively, with or without the leading '#'.
func NewHashtagDetector(courseTags map[string]string, campaignTags []string) *HashtagDetector {
	d := &HashtagDetector{courses: map[string]string{}, campaigns: map[string]struct{}{}}
	for tag, id := range courseTags {
		d.courses[canonicalTag(tag)] = id
	}
	for _, tag := range campaignTags {
		d.campaigns[canonicalTag(tag)] = struct{}{}
	}
	return d
}

func canonicalTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if !strings.HasPrefix(tag, "#") {
		tag = "#" + tag
	}
	return tag
}

// Detect returns the first course hashtag and the first campaign hashtag.
func (d *HashtagDetector) Detect(message string) HashtagMatch {
	var m HashtagMatch
	for _, tag := range ExtractHashtags(message) {
		if id, ok := d.courses[tag]; ok && m.CourseID == "" {
			m.CourseID, m.CourseTag = id, tag
		}
		if _, ok := d.campaigns[tag]; ok && m.CampaignTag == "" {
			m.CampaignTag = tag
		}
	}
	return m
}
