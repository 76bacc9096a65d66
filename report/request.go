// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

// Built-in body templates
const (
	BodyCardSerial = `{"card_serial": {{json .UID}}, "terminalId": {{json .TerminalID}}}`
	BodyUID        = `{"uid": {{json .UID}}, "terminalId": {{json .TerminalID}}}`
)

// Request is the data carried by one report.
type Request struct {
	UID        string
	TerminalID string
}

var bodyFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

// ParseBody resolves a body setting: "card_serial", "uid" or template text
// using .UID, .TerminalID and the json function.
func ParseBody(body string) (*template.Template, error) {
	text := body
	switch body {
	case "", "card_serial":
		text = BodyCardSerial
	case "uid":
		text = BodyUID
	}
	tmpl, err := template.New("body").Funcs(bodyFuncs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse body template: %w", err)
	}
	return tmpl, nil
}

// requestHead holds the fixed parts of the HTTP request.
type requestHead struct {
	host      string
	path      string
	userAgent string
}

func newRequestHead(host string, port int, path, userAgent string) requestHead {
	if port != 0 && port != 80 {
		host = host + ":" + strconv.Itoa(port)
	}
	if path == "" {
		path = "/"
	}
	return requestHead{host: host, path: path, userAgent: userAgent}
}

// build renders the complete HTTP/1.1 request.
func (h requestHead) build(body *template.Template, req Request) ([]byte, error) {
	var payload bytes.Buffer
	if err := body.Execute(&payload, req); err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}

	var sb strings.Builder
	sb.Grow(160 + payload.Len())
	sb.WriteString("POST " + h.path + " HTTP/1.1\r\n")
	sb.WriteString("Host: " + h.host + "\r\n")
	if h.userAgent != "" {
		sb.WriteString("User-Agent: " + h.userAgent + "\r\n")
	}
	sb.WriteString("Content-Type: application/json\r\n")
	sb.WriteString("Connection: close\r\n")
	sb.WriteString("Content-Length: " + strconv.Itoa(payload.Len()) + "\r\n")
	sb.WriteString("\r\n")
	sb.Write(payload.Bytes())
	return []byte(sb.String()), nil
}
