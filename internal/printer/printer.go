// Package printer salida coloreada de la CLI de administración.
package printer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Printer escribe mensajes en Out y errores en Err.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// Default salida estándar. NO_COLOR desactiva los colores.
func Default() *Printer {
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
	return &Printer{Out: os.Stdout, Err: os.Stderr}
}

// Success mensaje en verde con prefijo ✓.
func (p *Printer) Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprintln(p.Out, msg)
}

func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.Out, format+"\n", a...)
}

// Warning mensaje en amarillo.
func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.Out, "⚠  %s\n", fmt.Sprintf(format, a...))
}

// Step paso de una operación de varias etapas.
func (p *Printer) Step(format string, a ...any) {
	cyan.Fprintf(p.Out, "→ %s\n", fmt.Sprintf(format, a...))
}

// Error imprime título, causa y sugerencias en Err y devuelve un error simple para cobra.
func (p *Printer) Error(title string, cause error, suggestions ...string) error {
	red.Fprintf(p.Err, "%s\n", title)
	if cause != nil {
		fmt.Fprintf(p.Err, "\n%s\n", cause)
	}
	if len(suggestions) > 0 {
		fmt.Fprintln(p.Err)
		for _, s := range suggestions {
			fmt.Fprintf(p.Err, "  • %s\n", s)
		}
	}
	return fmt.Errorf("%s", title)
}
