package flow

import (
	"fmt"
	"strings"

	"github.com/BTreeMap/Brenda/internal/models"
)

// Chat copy. Kept together so wording changes never touch flow logic.
const (
	msgPrivacyReprompt = "Para poder ayudarte necesito tu autorización. Por favor responde *Acepto* si estás de acuerdo con el aviso de privacidad, o *No acepto* si prefieres no continuar."
	msgPrivacyAccepted = "¡Gracias por tu confianza! 🙌\n\n¿Cómo te gustaría que te llame? Escríbeme tu nombre."
	msgPrivacyRejected = "Entiendo y respeto tu decisión. No guardaremos tus datos. 🙏\n\nSi cambias de opinión, solo escribe *Acepto* y con gusto te ayudo."
	msgRejectedRemind  = "Sigo aquí para cuando lo necesites. Para continuar necesito tu autorización: escribe *Acepto* cuando quieras retomar."
	msgNameReminder    = "Disculpa, no logré identificar tu nombre. 😊 ¿Me lo escribes de nuevo? Por ejemplo: *Ana* o *Juan Pablo*."

	msgCourseReprompt = "No logré identificar el curso que te interesa. Responde con el *número* de la lista o el nivel (básico, intermedio o avanzado):"

	msgContactAsk       = "¿Te gustaría que uno de nuestros asesores te contacte por WhatsApp? Responde *Sí* para confirmar o *No* para seguir platicando conmigo."
	msgContactDeclined  = "¡Perfecto! Sigamos por aquí. ¿Qué más te gustaría saber del curso?"
	msgEscalationNotice = "Para darte una respuesta más precisa, voy a pedirle a un especialista de nuestro equipo que te contacte. 👩‍💼"

	msgBankAlreadySent = "Ya te compartí los datos para tu inscripción más arriba en este chat. 😊 Cuando realices la transferencia, envíame tu comprobante por aquí y confirmo tu lugar."
	msgPaymentRepeat   = "Tu pago ya quedó registrado y un asesor lo está verificando. Te avisaremos en cuanto tu acceso esté listo. 🙌"

	msgApology = "Disculpa, tuve un problema técnico al procesar tu mensaje. 🙏 ¿Podrías intentarlo de nuevo en unos minutos?"
)

func privacyRequest(displayName string) string {
	greeting := "¡Hola! 👋"
	if displayName != "" {
		greeting = fmt.Sprintf("¡Hola, %s! 👋", displayName)
	}
	return greeting + " Soy Brenda, asesora de cursos de Inteligencia Artificial.\n\n" +
		"Antes de continuar, necesito tu autorización para tratar tus datos personales conforme a nuestro aviso de privacidad. " +
		"Solo los usamos para darte información de nuestros cursos.\n\n" +
		"¿Aceptas? Responde *Acepto* o *No acepto*."
}

func nameGreeting(name string) string {
	return fmt.Sprintf("¡Mucho gusto, %s! 😊 Estoy aquí para ayudarte a encontrar el curso de IA ideal para ti.", name)
}

func courseMenu(name string, courses []models.Course) string {
	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s, estos son nuestros cursos disponibles:\n\n", name)
	} else {
		b.WriteString("Estos son nuestros cursos disponibles:\n\n")
	}
	b.WriteString(courseList(courses))
	b.WriteString("\n\n¿Cuál te interesa? Responde con el número.")
	return b.String()
}

func courseList(courses []models.Course) string {
	lines := make([]string, 0, len(courses))
	for i, c := range courses {
		lines = append(lines, fmt.Sprintf("%d. *%s* (%s) - %s", i+1, c.Name, c.Level, c.PriceLabel()))
	}
	return strings.Join(lines, "\n")
}

func courseSummary(c models.Course) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📚 *%s*\n", c.Name)
	if c.ShortDescription != "" {
		fmt.Fprintf(&b, "%s\n", c.ShortDescription)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "• Nivel: %s\n", c.Level)
	fmt.Fprintf(&b, "• Modalidad: %s\n", c.Modality)
	fmt.Fprintf(&b, "• Sesiones: %d (%d horas en total)\n", c.Sessions, c.DurationHours)
	fmt.Fprintf(&b, "• Inversión: %s", c.PriceLabel())
	return b.String()
}

func courseSelected(c models.Course) string {
	return "¡Excelente elección! 🎯\n\n" + courseSummary(c) +
		"\n\n¿Qué te gustaría saber? Puedo contarte del temario, las fechas o cómo inscribirte."
}

func courseAnnouncement(c models.Course) string {
	var b strings.Builder
	b.WriteString("🚀 ¡Gracias por tu interés!\n\n")
	b.WriteString(courseSummary(c))
	if c.Description != "" {
		fmt.Fprintf(&b, "\n\n%s", c.Description)
	}
	b.WriteString("\n\n¿Te gustaría apartar tu lugar o tienes alguna duda?")
	return b.String()
}

func adWelcome(name string, c models.Course) string {
	who := ""
	if name != "" {
		who = ", " + name
	}
	return fmt.Sprintf("¡Qué gusto que nos encontraras%s! 🙌 Vi que te interesó nuestro anuncio de *%s*.\n\n%s\n\n¿Qué te gustaría saber del curso?",
		who, c.Name, courseSummary(c))
}

func contactConfirmed(name string) string {
	if name == "" {
		return "¡Listo! Un asesor te contactará por este medio en breve. 🙌"
	}
	return fmt.Sprintf("¡Listo, %s! Un asesor te contactará por este medio en breve. 🙌", name)
}

func purchaseBonus(b models.Bonus, c models.Course) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎁 ¡Qué emoción que quieras inscribirte a *%s*!\n\n", c.Name)
	fmt.Fprintf(&sb, "Por inscribirte hoy te regalo: *%s*", b.Name)
	if b.Description != "" {
		fmt.Fprintf(&sb, ". %s", b.Description)
	}
	return sb.String()
}

func bankDetails(d models.BankDetails, c models.Course) string {
	var b strings.Builder
	b.WriteString("💳 Datos para tu transferencia:\n\n")
	fmt.Fprintf(&b, "• Banco: %s\n", d.Bank)
	fmt.Fprintf(&b, "• Titular: %s\n", d.AccountHolder)
	fmt.Fprintf(&b, "• CLABE: %s\n", d.CLABE)
	if c.Price > 0 {
		fmt.Fprintf(&b, "• Monto: %s\n", c.PriceLabel())
	}
	if d.Reference != "" {
		fmt.Fprintf(&b, "• Concepto: %s\n", d.Reference)
	}
	b.WriteString("\nCuando realices la transferencia, envíame tu comprobante por aquí. ✅")
	return b.String()
}

func paymentThanks(name string) string {
	who := ""
	if name != "" {
		who = ", " + name
	}
	return fmt.Sprintf("¡Muchas gracias%s! 🎉 Recibimos tu confirmación de pago. Un asesor verificará la transferencia y te enviará tu acceso al curso en breve.", who)
}

func fallbackGreeting(name string) string {
	if name == "" {
		return "¡Hola! Soy Brenda. 😊 ¿En qué te puedo ayudar con nuestros cursos de IA?"
	}
	return fmt.Sprintf("¡Hola, %s! 😊 ¿En qué más te puedo ayudar con nuestros cursos de IA?", name)
}

// categoryTemplates answer a category when the analyzer produced no reply.
var categoryTemplates = map[models.IntentCategory]string{
	models.CategoryGreeting:          "¡Hola! 😊 ¿Qué te gustaría saber de nuestros cursos de IA?",
	models.CategoryCourseInformation: "Nuestros cursos son 100% prácticos, en vivo y con grabaciones. ¿Te cuento el temario del curso que te interesa?",
	models.CategoryPriceInquiry:      "La inversión depende del curso. ¿Quieres que te comparta los detalles para inscribirte?",
	models.CategoryPurchaseIntent:    "¡Me da mucho gusto! ¿Quieres que te comparta los datos para inscribirte?",
	models.CategoryPurchaseReady:     "¡Perfecto! En un momento te comparto los datos para tu inscripción.",
	models.CategoryObjectionPrice:    "Entiendo. Piensa que en pocas semanas recuperas la inversión con el tiempo que ahorras automatizando tareas. ¿Te cuento casos de alumnos?",
	models.CategoryObjectionTime:     "¡Lo entiendo! Por eso todas las sesiones quedan grabadas para que avances a tu ritmo.",
	models.CategoryFreeResources:     "Te puedo compartir una guía gratuita de prompts para que empieces a practicar. ¿Te interesa?",
	models.CategoryGeneralQuestion:   "¡Buena pregunta! ¿Me das un poco más de contexto para ayudarte mejor?",
	models.CategoryOffTopic:          "Mi especialidad son los cursos de IA. 😊 ¿Te gustaría saber cómo pueden ayudarte en tu trabajo?",
}

func categoryReply(c models.IntentCategory, name string) string {
	if msg, ok := categoryTemplates[c]; ok {
		return msg
	}
	return fallbackGreeting(name)
}
