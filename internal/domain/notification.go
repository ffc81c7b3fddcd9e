package domain

// Variant define el estilo de una notificacion visible para el usuario.
type Variant string

const (
	VariantNormal      Variant = "normal"
	VariantDestructive Variant = "destructive"
)

// Notification es un aviso tipo toast emitido tras cada operacion de sesion.
type Notification struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}
