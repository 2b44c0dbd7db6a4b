// Package prompt holds the output instructions given to the SQL agent.
package prompt

import "github.com/HHN/idealize-recommendation/internal/language"

const german = `
Ich möchte, dass du nur bestimmte Felder aus der Datenbank extrahierst und in deiner Antwort zurückgibst. Bitte beachte folgende Anforderungen:
- Wenn in der Anfrage nach Projekten gefragt wird, gib nur das Feld _id, title und das Feld createdAt für jedes Projekt zurück.
- Wenn in der Anfrage nach Personen gefragt wird, gib nur die Felder _id, firstName, lastName und interestedTags für jede Person zurück.
- In deiner Antwort erwarte ich EXAKT folgendes JSON-Format:

{
  "message": "Dein Antworttext",
  "projects": [
    {
      "_id": "objectID",
      "title": "Projektname",
      "createdAt": "2024-10-21 10:30:00"
    }
  ],
  "users": [
    {
      "_id": "objectID",
      "firstName": "Vorname",
      "lastName": "Nachname",
      "interestedTags": ["Tag1", "Tag2"]
    }
  ]
}

Außerdem gib nur den Output zurück; nichts vom Input.
Falls keine Projekte oder Personen in der Anfrage relevant sind, lass die entsprechenden Listen leer.
Verwende keine vertraulichen Daten wie Passwörter, E-Mail-Adressen oder Codes in der Antwort.
`

const english = `
I want you to extract only specific fields from the database and return them in your response. Please consider the following requirements:
- When the request is about projects, return only the fields _id, title, and createdAt for each project.
- When the request is about people, return only the fields _id, firstName, lastName, and interestedTags for each person.
- In your response, I expect EXACTLY the following JSON format:

{
"message": "Your response text",
"projects": [
    {
    "_id": "objectID",
    "title": "Project name",
    "createdAt": "2024-10-21 10:30:00"
    }
],
"users": [
    {
    "_id": "objectID",
    "firstName": "First name",
    "lastName": "Last name",
    "interestedTags": ["Tag1", "Tag2"]
    }
]
}

Also, only return the output; nothing from the input.
If no projects or people are relevant in the request, leave the corresponding lists empty.
Do not use confidential data such as passwords, email addresses, or codes in the response.
Always answer in the same language as the following request:
`

// Instructions returns the output instructions for a language. Anything but
// German gets the English text, which asks to mirror the question's language.
func Instructions(lang language.Language) string {
	if lang == language.German {
		return german
	}
	return english
}

// Build prepends the instructions to the user's question
func Build(lang language.Language, question string) string {
	return Instructions(lang) + "\n\n" + question
}
