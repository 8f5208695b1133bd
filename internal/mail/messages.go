package mail

import (
	"html/template"

	"github.com/valyala/bytebufferpool"
)

var contactTemplate = template.Must(template.New("contact-notification").Parse(`<html>
<body>
  <h2>New contact message</h2>
  <p><strong>From:</strong> {{.Name}} &lt;{{.Email}}&gt;</p>
  <p><strong>Reference:</strong> {{.Reference}}</p>
  <hr>
  <p>{{.Message}}</p>
</body>
</html>`))

type ContactNotification struct {
	Name      string
	Email     string
	Message   string
	Reference string
}

func RenderContactNotification(data ContactNotification) (string, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := contactTemplate.Execute(buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
