package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/Brenda/internal/intent"
)

const sampleYAML = `
course_hashtags:
  "#Curso_Nuevo": curso-nuevo
campaign_hashtags: ["#ADSTT_09"]
bank:
  bank: Banorte
  account_holder: Brenda Cursos
  clabe: "072180000000000001"
  reference: Nombre
faqs:
  - category: horario
    keywords: ["a qué hora"]
    answer: Las sesiones son a las 7 pm.
`

func TestParseCampaignsOverridesAndDefaults(t *testing.T) {
	c, err := ParseCampaigns([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"#Curso_Nuevo": "curso-nuevo"}, c.CourseHashtags)
	assert.Equal(t, "Banorte", c.Bank.Bank)
	require.Len(t, c.FAQs, 1)
	assert.Equal(t, "horario", c.FAQs[0].Category)

	def := DefaultCampaigns()
	assert.Equal(t, def.AnnouncementCodes, c.AnnouncementCodes)
	assert.Equal(t, def.AnnouncementCourse, c.AnnouncementCourse)
	assert.Len(t, c.Courses, len(def.Courses))
}

func TestCampaignTablesDriveMatchers(t *testing.T) {
	c, err := ParseCampaigns([]byte(sampleYAML))
	require.NoError(t, err)

	m := intent.NewMatchers(c.Tables())
	match := m.Hashtags.Detect("Hola #curso_nuevo #ADSTT_09")
	assert.True(t, match.IsAdEntry())
	assert.Equal(t, "curso-nuevo", match.CourseID)

	hit, ok := m.FAQ.Match("¿a qué hora son las clases?")
	require.True(t, ok)
	assert.Equal(t, "horario", hit.Entry.Category)
}

func TestParseCampaignsInvalid(t *testing.T) {
	_, err := ParseCampaigns([]byte("course_hashtags: [unclosed"))
	assert.Error(t, err)
}

func TestLoadCampaigns(t *testing.T) {
	def, err := LoadCampaigns("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCampaigns().Bank, def.Bank)

	path := filepath.Join(t.TempDir(), "campaigns.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	c, err := LoadCampaigns(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"#ADSTT_09"}, c.CampaignHashtags)

	_, err = LoadCampaigns(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("BRENDA_STATE_DIR", "/tmp/brenda")
	t.Setenv("MESSAGING_TRANSPORT", TransportWhatsmeow)
	t.Setenv("TYPING_SIMULATION", "false")
	t.Setenv("LEAD_STORE_DSN", "")
	t.Setenv("WHATSAPP_DB_DSN", "")
	t.Setenv("API_ADDR", "")

	c := FromEnv()
	assert.Equal(t, "/tmp/brenda", c.StateDir)
	assert.Equal(t, TransportWhatsmeow, c.Transport)
	assert.False(t, c.TypingSimulation)
	assert.Equal(t, DefaultAPIAddr, c.APIAddr)

	c.ResolveDefaults()
	assert.Equal(t, "dir:/tmp/brenda/leads", c.LeadStoreDSN)
	assert.Equal(t, "file:/tmp/brenda/whatsmeow.db?_foreign_keys=on", c.WhatsAppDBDSN)
}

func TestFromEnvWebhookAndCORS(t *testing.T) {
	t.Setenv("WEBHOOK_BASE_URL", "https://brenda.example.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://crm.example.com, ,https://admin.example.com")
	t.Setenv("LOG_LEVEL", "")

	c := FromEnv()
	assert.Equal(t, "https://brenda.example.com", c.WebhookBaseURL)
	assert.Equal(t, []string{"https://crm.example.com", "https://admin.example.com"}, c.CORSOrigins)
	assert.Equal(t, "info", c.LogLevel)
}
