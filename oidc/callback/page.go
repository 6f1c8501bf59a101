// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package callback

import "net/http"

// PageTitle is the title of the page served to every callback request.
const PageTitle = "OAuth2 callback"

// PageMessage is the message shown to the user once the browser was
// redirected back.
const PageMessage = "Done - you can close this window now."

// page doesn't echo anything from the request.
const page = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>` + PageTitle + `</title>
<style>
body {
    font-family: sans-serif;
}
</style>
</head>
<body>
<p id="message">` + PageMessage + `</p>
</body>
</html>
`

func setSecurityHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "no-referrer")
	h.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
}

func writePage(w http.ResponseWriter) error {
	setSecurityHeaders(w)
	w.WriteHeader(http.StatusOK)
	_, err := w.Write([]byte(page))
	return err
}
