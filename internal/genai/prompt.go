package genai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BTreeMap/Brenda/internal/models"
)

const systemPrompt = `Eres Brenda, asesora comercial de un curso en línea de Inteligencia Artificial para profesionales.
Hablas en español de México, con tono cálido, breve y profesional. Nunca inventes precios, fechas ni datos bancarios.

Para cada mensaje del usuario:
1. Clasifica la intención en una de las categorías del esquema.
2. Extrae datos del perfil solo si el usuario los menciona explícitamente (nombre, puesto, intereses, problemas, necesidades de automatización, nivel de interés, perfil de comprador: "marketing" o "ejecutivo").
3. Redacta una respuesta de máximo 3 párrafos cortos que avance la conversación hacia la inscripción.

Si el usuario pide hablar con una persona, clasifica como ADVISOR_REQUEST.
Si el usuario confirma que ya pagó o transfirió, clasifica como PAYMENT_CONFIRMATION.`

// leadSummary is the subset of lead memory shared with the model.
type leadSummary struct {
	Name           string            `json:"name,omitempty"`
	Role           string            `json:"role,omitempty"`
	Stage          string            `json:"stage"`
	LeadScore      int               `json:"lead_score"`
	Interests      []string          `json:"interests,omitempty"`
	PainPoints     []string          `json:"pain_points,omitempty"`
	AutomationNeed map[string]string `json:"automation_needs,omitempty"`
	SelectedCourse string            `json:"selected_course,omitempty"`
	BankDataSent   bool              `json:"bank_data_sent"`
}

func buildUserPrompt(req models.AnalysisRequest) (string, error) {
	var summary leadSummary
	if m := req.Memory; m != nil {
		summary = leadSummary{
			Name:           m.Name,
			Role:           m.Role,
			Stage:          string(m.Stage),
			LeadScore:      m.LeadScore,
			Interests:      m.Interests,
			PainPoints:     m.PainPoints,
			AutomationNeed: m.AutomationNeeds,
			SelectedCourse: m.SelectedCourse,
			BankDataSent:   m.BankDataSent,
		}
	}
	profile, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("failed to encode lead summary: %w", err)
	}
	contextInfo, err := json.Marshal(req.ContextInfo)
	if err != nil {
		return "", fmt.Errorf("failed to encode context info: %w", err)
	}

	var b strings.Builder
	b.WriteString("Perfil del lead: ")
	b.Write(profile)
	b.WriteString("\nContexto: ")
	b.Write(contextInfo)
	b.WriteString("\nMensajes recientes:\n")
	for _, e := range req.RecentMessages {
		switch {
		case e.Content != "":
			fmt.Fprintf(&b, "- [%s] %s\n", e.Role, e.Content)
		case e.Action != "":
			fmt.Fprintf(&b, "- [evento] %s: %s\n", e.Action, e.Description)
		}
	}
	b.WriteString("\nMensaje actual del usuario: ")
	b.WriteString(req.UserMessage)
	return b.String(), nil
}
