package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

const layout = `{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #334155; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #2563eb; color: white; padding: 32px 20px; text-align: center; border-radius: 8px 8px 0 0;">
    <h1 style="margin: 0; font-size: 24px;">Abogados Online Ecuador</h1>
    <p style="margin: 8px 0 0; color: #dbeafe;">Servicio legal digital independiente</p>
  </div>
  <div style="padding: 32px 20px; border: 1px solid #e2e8f0; border-top: none;">
    {{template "content" .}}
  </div>
  <div style="text-align: center; color: #64748b; font-size: 12px; margin-top: 32px;">
    <strong>Abogados Online Ecuador</strong><br>
    <a href="mailto:info@abogadosonlineecuador.com">info@abogadosonlineecuador.com</a>
  </div>
</body>
</html>{{end}}`

var (
	contractTmpl = mustTemplate(`{{define "content"}}
<h2>¡Tu contrato está listo!</h2>
<p>Hola {{.ClientName}},</p>
<p>Adjuntamos el contrato de compraventa del vehículo:</p>
<p style="background: #f1f5f9; padding: 16px; border-radius: 6px;">
  <strong>VEHÍCULO</strong><br>{{.Placa}}<br>{{.Marca}} {{.Modelo}}
</p>
<ol>
  <li>Descarga tu contrato</li>
  <li>Revisa el documento</li>
  <li>Firma el contrato</li>
  <li>Realiza la transferencia</li>
</ol>
<p style="text-align: center;"><a href="{{.DownloadURL}}" style="background: #2563eb; color: white; padding: 14px 32px; text-decoration: none; border-radius: 6px;">Descargar contrato</a></p>
<p style="font-size: 12px; color: #64748b;">El enlace de descarga es válido por 24 horas.</p>
{{end}}`)

	contactTmpl = mustTemplate(`{{define "content"}}
<h2>Nuevo mensaje de contacto</h2>
<p><strong>Nombre:</strong> {{.Nombre}}<br>
<strong>Email:</strong> {{.Email}}<br>
{{if .Telefono}}<strong>Teléfono:</strong> {{.Telefono}}<br>{{end}}
<strong>Asunto:</strong> {{.Asunto}}</p>
<p style="white-space: pre-line;">{{.Mensaje}}</p>
{{end}}`)

	presupuestoTmpl = mustTemplate(`{{define "content"}}
<h2>¡Hola {{.ClientName}}!</h2>
<p>Tu presupuesto de escrituración como <strong>{{.Rol}}</strong> está adjunto en formato PDF.</p>
<p>Total estimado: <strong>USD {{printf "%.2f" .Total}}</strong></p>
<p>Los valores son referenciales y pueden variar según la notaría y el municipio.</p>
{{end}}`)

	resetTmpl = mustTemplate(`{{define "content"}}
<h2>Restablecer contraseña</h2>
<p>Recibimos una solicitud para restablecer tu contraseña. El enlace es válido por una hora.</p>
<p style="text-align: center;"><a href="{{.ResetURL}}" style="background: #2563eb; color: white; padding: 14px 32px; text-decoration: none; border-radius: 6px;">Crear nueva contraseña</a></p>
<p style="font-size: 12px; color: #64748b;">Si no solicitaste este cambio, ignora este correo.</p>
{{end}}`)
)

func mustTemplate(content string) *template.Template {
	return template.Must(template.Must(template.New("email").Parse(layout)).Parse(content))
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}

// ContractEmail describes a generated contract delivery
type ContractEmail struct {
	To          string
	ClientName  string
	Placa       string
	Marca       string
	Modelo      string
	DownloadURL string
	PDF         []byte
}

// ContractDelivery builds the message that delivers a generated contract
func ContractDelivery(e ContractEmail) (Message, error) {
	html, err := render(contractTmpl, e)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:          []string{e.To},
		Subject:     "Tu contrato de compraventa - " + e.Placa,
		HTML:        html,
		Attachments: []Attachment{{Filename: "contrato-" + e.Placa + ".pdf", Content: e.PDF}},
		Tags:        []Tag{{Name: "category", Value: "contract"}},
	}, nil
}

// ContactEmail is a contact form submission
type ContactEmail struct {
	Nombre   string
	Email    string
	Telefono string
	Asunto   string
	Mensaje  string
}

// ContactNotification builds the staff notification for a contact form
func ContactNotification(to string, e ContactEmail) (Message, error) {
	html, err := render(contactTmpl, e)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{to},
		ReplyTo: e.Email,
		Subject: "Contacto web: " + e.Asunto,
		HTML:    html,
		Tags:    []Tag{{Name: "category", Value: "contact"}},
	}, nil
}

// PresupuestoEmail carries a rendered presupuesto PDF
type PresupuestoEmail struct {
	To         string
	ClientName string
	Rol        string
	Total      float64
	PDF        []byte
	Filename   string
}

// Presupuesto builds the lead magnet email
func Presupuesto(e PresupuestoEmail) (Message, error) {
	html, err := render(presupuestoTmpl, e)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:          []string{e.To},
		Subject:     "Tu presupuesto de escrituración está listo - " + e.ClientName,
		HTML:        html,
		Attachments: []Attachment{{Filename: e.Filename, Content: e.PDF}},
		Tags: []Tag{
			{Name: "category", Value: "lead-magnet"},
			{Name: "type", Value: "presupuesto-inmobiliario"},
		},
	}, nil
}

// PasswordReset builds the reset link email
func PasswordReset(to, resetURL string) (Message, error) {
	html, err := render(resetTmpl, struct{ ResetURL string }{resetURL})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{to},
		Subject: "Restablece tu contraseña - Abogados Online Ecuador",
		HTML:    html,
		Tags:    []Tag{{Name: "category", Value: "auth"}},
	}, nil
}
