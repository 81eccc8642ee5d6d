// Package errorpage maps service errors to the pages shown to end users.
package errorpage

import (
	"html/template"
	"io"
	"net/http"

	"github.com/naka-gawa/github-trophy/internal/domain"
)

// StatusRateLimited is the status used when the GitHub quota is exhausted.
const StatusRateLimited = 419

const (
	rateLimitMessage  = "You have exceeded the request limit. Please try again later."
	notFoundMessage   = "Sorry, the user you are looking for was not found."
	badRequestMessage = `"username" is a required query parameter.`
)

// Page is what the user sees for a failed request.
type Page struct {
	Kind    domain.Kind
	Status  int
	Title   string
	Message string
	// Usage adds the query parameter guidance and the lookup form.
	Usage bool
}

// Classify maps err to its page. A nil error or any kind other than rate
// limit and not found yields the bad request page.
func Classify(err *domain.ServiceError) Page {
	if err == nil {
		return badRequest()
	}
	switch err.Kind {
	case domain.KindRateLimit:
		return Page{Kind: err.Kind, Status: StatusRateLimited, Title: "Rate Limit Exceeded", Message: rateLimitMessage}
	case domain.KindNotFound:
		return Page{Kind: err.Kind, Status: http.StatusNotFound, Title: "Not Found", Message: notFoundMessage}
	default:
		return badRequest()
	}
}

func badRequest() Page {
	return Page{
		Kind:    domain.KindUnspecified,
		Status:  http.StatusBadRequest,
		Title:   "Bad Request",
		Message: badRequestMessage,
		Usage:   true,
	}
}

var pageTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>GitHub Profile Trophy</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 0; padding: 0; background-color: #f4f4f4; }
    h1, h2 { color: #333; }
    p { color: #666; }
    section { width: 80%; margin: 0 auto; padding: 20px; }
    div { background-color: #fff; border-radius: 5px; padding: 20px; margin-bottom: 20px; }
    form { display: flex; flex-direction: column; }
    input { padding: 12px; margin-bottom: 20px; border-radius: 5px; border: 1px solid #ddd; }
    button { padding: 10px 20px; background-color: #333; color: #fff; border: none; border-radius: 5px; }
    #base-show { font-size: 16px; background-color: #f4f4f4; padding: 10px; text-align: center; }
    #back-link { display: flex; justify-content: center; }
  </style>
</head>
<body>
  <h1 style="text-align: center;">{{.Page.Status}} - {{.Page.Title}}</h1>
  <p style="text-align: center;">{{.Page.Message}}</p>
{{- if .Page.Usage}}
  <section>
    <div>
      <h2>The URL should look like</h2>
      <p id="base-show">{{.Origin}}/?username=USERNAME</p>
      <p>where <code>USERNAME</code> is <em>your GitHub username.</em></p>
    </div>
    <div>
      <h2>Or use this form:</h2>
      <form action="{{.Origin}}/" method="get">
        <label for="username">GitHub Username</label>
        <input type="text" name="username" id="username" placeholder="Ex. octocat" required>
        <label for="theme">Theme (Optional)</label>
        <input type="text" name="theme" id="theme" placeholder="Ex. onedark" value="flat">
        <button type="submit">Get Trophies</button>
      </form>
    </div>
  </section>
{{- else}}
  <a id="back-link" href="/">Go back</a>
{{- end}}
</body>
</html>
`))

// Render writes page as an HTML document. origin is the scheme and host the
// usage guidance points at.
func Render(w io.Writer, page Page, origin string) error {
	return pageTemplate.Execute(w, struct {
		Page   Page
		Origin string
	}{Page: page, Origin: origin})
}
