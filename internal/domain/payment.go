package domain

import "time"

// CheckImage es la foto del cheque tal como la entrega el selector de imagenes,
// en formato data URI (data:image/jpeg;base64,...).
type CheckImage struct {
	DataURI string
	MIME    string
	Size    int
}

// Empty indica que no hay imagen adjunta.
func (i CheckImage) Empty() bool {
	return i.DataURI == ""
}

// PaymentSubmission es un registro de pago ya validado, listo para enviarse.
type PaymentSubmission struct {
	BusinessName string
	QuantitySold float64
	CheckImage   CheckImage
}

// PaymentRequest es el cuerpo JSON de POST /api/payments.
type PaymentRequest struct {
	BusinessName     string  `json:"businessName"`
	QuantitySold     float64 `json:"quantitySold"`
	CheckImageBase64 string  `json:"checkImageBase64"`
}

// PaymentReceipt es la respuesta del backend a un pago registrado.
type PaymentReceipt struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId,omitempty"`
	BusinessName string    `json:"businessName"`
	QuantitySold float64   `json:"quantitySold"`
	Timestamp    time.Time `json:"timestamp"`
}

// Payment es el registro persistido del lado del servidor.
type Payment struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	BusinessName     string    `json:"businessName"`
	QuantitySold     int       `json:"quantitySold"`
	CheckImageBase64 string    `json:"-"`
	CreatedAt        time.Time `json:"timestamp"`
}
