package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"checkpay/internal/capture"
)

// Prompter lee respuestas del usuario. Con una terminal real la contraseña
// se lee sin eco.
type Prompter struct {
	in  *bufio.Reader
	tty *os.File
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.tty = f
	}
	return p
}

// Line muestra label y devuelve la linea sin el salto final. Devuelve io.EOF
// solo si no quedaba nada por leer.
func (p *Prompter) Line(label string) (string, error) {
	if label != "" {
		fmt.Fprint(p.out, label)
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *Prompter) Password(label string) (string, error) {
	if p.tty == nil {
		return p.Line(label)
	}
	fmt.Fprint(p.out, label)
	raw, err := term.ReadPassword(int(p.tty.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Confirm acepta y/yes.
func (p *Prompter) Confirm(label string) bool {
	answer, err := p.Line(label + " [y/N]: ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// ImagePath es el selector de imagen en la terminal: camara y galeria piden
// una ruta; una respuesta vacia cancela.
func (p *Prompter) ImagePath(_ context.Context, source capture.Source) (string, error) {
	label := "Path to check image"
	if source == capture.SourceCamera {
		label = "Path to the photo of the check"
	}
	path, err := p.Line(label + " (blank to cancel): ")
	if errors.Is(err, io.EOF) {
		return "", nil
	}
	return path, err
}
