package submission

import (
	"math"
	"strconv"
	"strings"

	"checkpay/internal/domain"
)

// Campos del formulario, usados en ValidationError.Field.
const (
	FieldBusinessName = "business_name"
	FieldQuantitySold = "quantity_sold"
	FieldCheckImage   = "check_image"
)

// Form son los valores crudos que escribe el usuario.
type Form struct {
	BusinessName string
	QuantitySold string
	CheckImage   domain.CheckImage
}

// Empty indica que no hay nada cargado.
func (f Form) Empty() bool {
	return f.BusinessName == "" && f.QuantitySold == "" && f.CheckImage.Empty()
}

// Validate es sincrona y local. Devuelve el pago listo para enviar o un
// ValidationError con el primer campo invalido.
func Validate(form Form) (domain.PaymentSubmission, error) {
	name := strings.TrimSpace(form.BusinessName)
	if name == "" {
		return domain.PaymentSubmission{}, &domain.ValidationError{
			Field:   FieldBusinessName,
			Message: "Please enter the business name",
		}
	}

	qty, ok := parseQuantity(form.QuantitySold)
	if !ok {
		return domain.PaymentSubmission{}, &domain.ValidationError{
			Field:   FieldQuantitySold,
			Message: "Please enter a valid quantity (number greater than 0)",
		}
	}

	if form.CheckImage.Empty() {
		return domain.PaymentSubmission{}, &domain.ValidationError{
			Field:   FieldCheckImage,
			Message: "Please take a photo or select an image of the check",
		}
	}

	return domain.PaymentSubmission{
		BusinessName: name,
		QuantitySold: qty,
		CheckImage:   form.CheckImage,
	}, nil
}

func parseQuantity(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}
