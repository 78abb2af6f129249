package intent

import "unicode/utf8"

var professionalKeywords = []string{
	"gerente", "director", "directora", "ceo", "cto", "cfo", "coo", "cmo", "fundador", "fundadora",
	"cofundador", "cofundadora", "dueño", "dueña", "propietario", "propietaria", "socio", "socia",
	"coordinador", "coordinadora", "jefe", "jefa", "líder", "supervisor", "supervisora",
	"analista", "ingeniero", "ingeniera", "desarrollador", "desarrolladora", "programador",
	"programadora", "consultor", "consultora", "contador", "contadora", "abogado", "abogada",
	"médico", "doctor", "doctora", "profesor", "profesora", "maestro", "maestra", "docente",
	"emprendedor", "emprendedora", "freelance", "freelancer", "independiente", "diseñador",
	"diseñadora", "administrador", "administradora", "ejecutivo", "ejecutiva", "asistente",
	"vendedor", "vendedora", "estudiante", "especialista", "manager", "marketing", "ventas",
	"recursos humanos", "finanzas", "operaciones", "logística", "mercadotecnia", "comunicación",
	"community manager", "project manager", "product manager",
}

const (
	minRoleLength = 3
	maxRoleLength = 80
)

// IsProfessionalRole reports whether an analyzer-extracted role contains a
// recognized professional keyword.
func IsProfessionalRole(role string) bool {
	n := utf8.RuneCountInString(role)
	if n < minRoleLength || n > maxRoleLength {
		return false
	}
	_, ok := containsAnyPhrase(Fold(role), professionalKeywords)
	return ok
}
