package intent

// FAQEntry is one row of the FAQ table.
type FAQEntry struct {
	Category string `yaml:"category"`
	// Keywords are specific phrasings checked in the first pass.
	Keywords []string `yaml:"keywords"`
	// CategoryKeywords are broad topic words checked only when no entry matched
	// a specific keyword.
	CategoryKeywords []string `yaml:"category_keywords"`
	Answer           string   `yaml:"answer"`
	EscalationNeeded bool     `yaml:"escalation_needed"`
	Priority         int      `yaml:"priority"`
}

// FAQMatch is the result of a successful FAQ lookup.
type FAQMatch struct {
	Entry   FAQEntry
	Keyword string
}

// FAQMatcher performs first-hit-wins keyword matching over an ordered table.
type FAQMatcher struct {
	entries []FAQEntry
}

// NewFAQMatcher creates a matcher. Entries are evaluated in the given order.
func NewFAQMatcher(entries []FAQEntry) *FAQMatcher {
	if len(entries) == 0 {
		entries = DefaultFAQs()
	}
	return &FAQMatcher{entries: append([]FAQEntry{}, entries...)}
}

// Entries returns a copy of the table.
func (m *FAQMatcher) Entries() []FAQEntry {
	return append([]FAQEntry{}, m.entries...)
}

// Match returns the first entry with a specific keyword in the message, then
// falls back to the first entry with a category keyword.
func (m *FAQMatcher) Match(message string) (FAQMatch, bool) {
	text := Fold(message)
	if text == "" {
		return FAQMatch{}, false
	}
	for _, e := range m.entries {
		if kw, ok := containsAnyPhrase(text, e.Keywords); ok {
			return FAQMatch{Entry: e, Keyword: kw}, true
		}
	}
	for _, e := range m.entries {
		if kw, ok := containsAnyPhrase(text, e.CategoryKeywords); ok {
			return FAQMatch{Entry: e, Keyword: kw}, true
		}
	}
	return FAQMatch{}, false
}

// DefaultFAQs is the built-in FAQ table.
func DefaultFAQs() []FAQEntry {
	return []FAQEntry{
		{
			Category:         "precio",
			Keywords:         []string{"cuánto cuesta", "cuanto cuesta", "cuál es el precio", "qué precio", "cuánto vale", "cuánto es"},
			CategoryKeywords: []string{"precio", "costo", "inversión", "cuesta"},
			Answer:           "El curso tiene una inversión única que incluye todas las sesiones en vivo, grabaciones y materiales. Puedes pagar por transferencia y te comparto los datos cuando estés listo.",
			Priority:         1,
		},
		{
			Category:         "duracion",
			Keywords:         []string{"cuánto dura", "cuantas sesiones", "cuántas sesiones", "cuántas horas", "qué horario", "cuándo empieza", "fecha de inicio"},
			CategoryKeywords: []string{"duración", "horario", "sesiones", "fechas"},
			Answer:           "El curso se imparte en sesiones en vivo de 2 horas y todas quedan grabadas para que las veas a tu ritmo.",
			Priority:         2,
		},
		{
			Category:         "modalidad",
			Keywords:         []string{"es en línea", "es online", "es presencial", "en vivo o grabado"},
			CategoryKeywords: []string{"modalidad", "online", "presencial", "zoom"},
			Answer:           "Es 100% en línea: sesiones en vivo por Zoom y acceso a las grabaciones en nuestra plataforma.",
			Priority:         3,
		},
		{
			Category:         "certificado",
			Keywords:         []string{"dan certificado", "tiene certificado", "dan constancia", "hay diploma"},
			CategoryKeywords: []string{"certificado", "constancia", "diploma", "certificación"},
			Answer:           "Sí, al terminar recibes una constancia digital con valor curricular.",
			Priority:         4,
		},
		{
			Category:         "requisitos",
			Keywords:         []string{"necesito saber programar", "qué necesito", "hay requisitos", "necesito experiencia"},
			CategoryKeywords: []string{"requisitos", "requisito", "programar", "experiencia previa"},
			Answer:           "No necesitas saber programar. Solo una computadora con internet y ganas de aplicar la IA en tu trabajo.",
			Priority:         5,
		},
		{
			Category:         "pago",
			Keywords:         []string{"formas de pago", "cómo pago", "puedo pagar con tarjeta", "meses sin intereses", "aceptan tarjeta"},
			CategoryKeywords: []string{"tarjeta", "transferencia", "pago", "factura"},
			Answer:           "Aceptamos transferencia bancaria y tarjeta. Si necesitas factura, la emitimos al confirmar tu pago.",
			Priority:         6,
		},
		{
			Category:         "implementacion",
			Keywords:         []string{"implementar en mi empresa", "cómo lo aplico en mi empresa", "implementación en mi negocio", "integrar con mis sistemas"},
			CategoryKeywords: []string{"implementación", "implementar", "integración"},
			Answer:           "En el curso verás casos prácticos para implementar IA en procesos reales de tu empresa.",
			EscalationNeeded: true,
			Priority:         7,
		},
		{
			Category:         "roi",
			Keywords:         []string{"retorno de inversión", "vale la pena", "cuánto voy a ahorrar", "en cuánto tiempo recupero"},
			CategoryKeywords: []string{"roi", "ahorro", "rentabilidad", "resultados"},
			Answer:           "Nuestros alumnos suelen recuperar la inversión automatizando tareas repetitivas desde las primeras semanas.",
			EscalationNeeded: true,
			Priority:         8,
		},
		{
			Category:         "garantia",
			Keywords:         []string{"hay garantía", "me devuelven", "puedo pedir reembolso"},
			CategoryKeywords: []string{"garantía", "reembolso", "devolución"},
			Answer:           "Si después de la primera sesión sientes que no es para ti, te devolvemos tu dinero.",
			Priority:         9,
		},
		{
			Category:         "soporte",
			Keywords:         []string{"si tengo dudas", "hay soporte", "puedo preguntar"},
			CategoryKeywords: []string{"soporte", "dudas", "acompañamiento"},
			Answer:           "Tienes acceso a un grupo privado y sesiones de preguntas con el instructor.",
			Priority:         10,
		},
	}
}
