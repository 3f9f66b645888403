package services

import (
	"errors"
	"fmt"
	"strings"

	"reaction-hand/models"
)

// noReactionToken ist die Antwort des Modells, wenn keine Reaktion stattfindet.
const noReactionToken = "null"

// ErrMalformedAnswer wird im strikten Modus für Antworten ohne genau vier Zeilen geliefert.
var ErrMalformedAnswer = errors.New("malformed model answer")

// ParseContent zerlegt die Modellantwort zeilenweise in ein ReactionResult.
// Für eine leere Antwort oder "null" wird (nil, nil) zurückgegeben.
//
// Im toleranten Modus werden überzählige Zeilen verworfen und fehlende Felder
// bleiben leer. Im strikten Modus muss die Antwort aus genau vier nicht-leeren
// Zeilen bestehen.
func ParseContent(content string, strict bool) (*models.ReactionResult, error) {
	if content == "" || content == noReactionToken {
		return nil, nil
	}

	if strict {
		return parseStrict(content)
	}

	var fields [4]string
	for i, line := range strings.Split(content, "\n") {
		if i >= len(fields) {
			break
		}
		fields[i] = strings.TrimSpace(line)
	}

	return &models.ReactionResult{
		Formula:     fields[0],
		Name:        fields[1],
		Description: fields[2],
		Emoji:       fields[3],
	}, nil
}

func parseStrict(content string) (*models.ReactionResult, error) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) != 4 {
		return nil, fmt.Errorf("%w: expected 4 lines, got %d", ErrMalformedAnswer, len(lines))
	}

	result := &models.ReactionResult{
		Formula:     strings.TrimSpace(lines[0]),
		Name:        strings.TrimSpace(lines[1]),
		Description: strings.TrimSpace(lines[2]),
		Emoji:       strings.TrimSpace(lines[3]),
	}
	if !result.Complete() {
		return nil, fmt.Errorf("%w: empty field", ErrMalformedAnswer)
	}
	return result, nil
}
