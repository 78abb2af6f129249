package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/BTreeMap/Brenda/internal/models"
)

// StaticCatalog serves a fixed in-process catalog.
type StaticCatalog struct {
	courses []models.Course
	bonuses []models.Bonus
}

// NewStaticCatalog creates a catalog from the given data. Empty inputs fall
// back to the built-in courses and bonuses.
func NewStaticCatalog(courses []models.Course, bonuses []models.Bonus) *StaticCatalog {
	if len(courses) == 0 {
		courses = DefaultCourses()
	}
	if len(bonuses) == 0 {
		bonuses = DefaultBonuses()
	}
	return &StaticCatalog{courses: courses, bonuses: bonuses}
}

func (s *StaticCatalog) AllCourses(context.Context) ([]models.Course, error) {
	return append([]models.Course{}, s.courses...), nil
}

func (s *StaticCatalog) CourseByID(_ context.Context, id string) (models.Course, error) {
	for _, c := range s.courses {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Course{}, fmt.Errorf("%w: %s", models.ErrCourseNotFound, id)
}

func (s *StaticCatalog) SearchCourses(_ context.Context, keyword string) ([]models.Course, error) {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	var out []models.Course
	for _, c := range s.courses {
		hay := strings.ToLower(c.Name + " " + c.ShortDescription + " " + c.Description + " " + strings.Join(c.Topics, " "))
		if kw != "" && strings.Contains(hay, kw) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *StaticCatalog) BonusesForCourse(_ context.Context, courseID string) ([]models.Bonus, error) {
	var out []models.Bonus
	for _, b := range s.bonuses {
		if b.CourseID == "" || b.CourseID == courseID {
			out = append(out, b)
		}
	}
	return out, nil
}

// DefaultCourses is the hard-coded course list used when no catalog is reachable.
func DefaultCourses() []models.Course {
	return []models.Course{
		{
			ID:               "experto-ia-gpt-gemini",
			Name:             "Experto en IA para Profesionales",
			ShortDescription: "Domina ChatGPT y Gemini para tu trabajo diario",
			Description:      "Aprende a usar ChatGPT y Gemini para redactar, analizar datos y automatizar tareas de oficina con casos prácticos.",
			Level:            "Principiante",
			Modality:         "En línea en vivo",
			Price:            4500,
			Currency:         "MXN",
			Sessions:         4,
			DurationHours:    12,
			Topics:           []string{"ia"},
		},
		{
			ID:               "automatizacion-ia",
			Name:             "Automatización de Procesos con IA",
			ShortDescription: "Crea flujos automáticos sin programar",
			Description:      "Conecta tus herramientas y automatiza reportes, correos y seguimiento de clientes con IA y plataformas no-code.",
			Level:            "Intermedio",
			Modality:         "En línea en vivo",
			Price:            5900,
			Currency:         "MXN",
			Sessions:         6,
			DurationHours:    18,
			Topics:           []string{"automatizacion", "datos"},
		},
		{
			ID:               "marketing-ia",
			Name:             "Marketing Digital con IA",
			ShortDescription: "Campañas, contenido y análisis con IA",
			Description:      "Genera contenido, segmenta audiencias y optimiza campañas de publicidad usando inteligencia artificial.",
			Level:            "Avanzado",
			Modality:         "En línea en vivo",
			Price:            6500,
			Currency:         "MXN",
			Sessions:         6,
			DurationHours:    18,
			Topics:           []string{"marketing"},
		},
	}
}

// DefaultBonuses is the hard-coded bonus list. The first entry is the generic fallback.
func DefaultBonuses() []models.Bonus {
	return []models.Bonus{
		{
			ID:          "guia-prompts",
			Name:        "Guía de 100 prompts profesionales",
			Description: "Prompts listos para usar en tu día a día.",
		},
		{
			ID:          "workbook-marketing",
			Name:        "Workbook de ejercicios de marketing con IA",
			Description: "Ejercicios prácticos para crear campañas y contenido.",
			Personas:    []string{"marketing", "community", "contenido"},
		},
		{
			ID:          "plantillas-planeacion",
			Name:        "Plantillas de planeación estratégica con IA",
			Description: "Plantillas para planear proyectos y presupuestos con IA.",
			Personas:    []string{"ejecutivo", "director", "gerente", "ceo", "lider"},
		},
	}
}
